package gitcli

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseAheadBehindRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("parses any rev-list count pair", prop.ForAll(
		func(ahead, behind int) bool {
			out := fmt.Sprintf("%d\t%d", ahead, behind)
			gotAhead, gotBehind, err := ParseAheadBehind(out)
			return err == nil && gotAhead == ahead && gotBehind == behind
		},
		gen.IntRange(0, 1<<30),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}
