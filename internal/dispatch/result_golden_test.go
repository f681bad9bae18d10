package dispatch_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

func TestResultEnvelopesMatchGolden(t *testing.T) {
	var golden map[string]map[string]any
	if err := testsupport.LoadGolden("testdata/envelopes.golden.json", &golden); err != nil {
		t.Fatalf("load golden: %v", err)
	}

	toggled := dispatch.ToggleOutcome{Message: `Article "Launch" is now inactive`}
	got := map[string]dispatch.Result{
		"toggled":      dispatch.Respond(toggled, toggled.Message, nil),
		"not_found":    dispatch.Respond(nil, "", domain.NotFoundError("Article", "x")),
		"rate_limited": dispatch.Respond(nil, "", domain.RateLimitedError("actor")),
		"internal":     dispatch.Respond(nil, "", errors.New("connection reset")),
	}

	for name, result := range got {
		raw, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s: unmarshal: %v", name, err)
		}
		if !reflect.DeepEqual(decoded, golden[name]) {
			t.Fatalf("%s: envelope mismatch\nwant %v\ngot  %v", name, golden[name], decoded)
		}
	}
}
