package ocr_test

import (
	"context"
	"testing"

	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

func TestRegistrySelectEngine(t *testing.T) {
	probes := 0
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{ID: "b", Available: func() bool { probes++; return false }})
	reg.Register(ocr.Registration{ID: "a", Available: func() bool { return true }})
	reg.Register(ocr.Registration{ID: "c"})

	tests := []struct {
		id         types.EngineID
		preference []types.EngineID
		want       types.EngineID
	}{
		{"auto", nil, "a"},
		{"", []types.EngineID{"b", "c"}, "c"},
		{"b", nil, "b"},
	}
	for _, tt := range tests {
		got, err := reg.SelectEngine(tt.id, tt.preference...)
		if err != nil {
			t.Fatalf("SelectEngine(%q): %v", tt.id, err)
		}
		if got != tt.want {
			t.Fatalf("SelectEngine(%q, %v) = %s, want %s", tt.id, tt.preference, got, tt.want)
		}
	}
	if probes != 1 {
		t.Fatalf("availability probed %d times, want 1", probes)
	}

	if _, err := reg.SelectEngine("zzz"); utils.GetErrorType(err) != utils.ErrorTypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegistryNoEnginesAvailable(t *testing.T) {
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{ID: "x", Available: func() bool { return false }})
	if _, err := reg.SelectEngine("auto"); !utils.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{ID: "zeta", Capabilities: types.EngineCapabilities{Kind: types.KindLineText}})
	reg.Register(ocr.Registration{ID: "alpha", Available: func() bool { return false }})

	infos := reg.List()
	if len(infos) != 2 || infos[0].ID != "alpha" || infos[1].ID != "zeta" {
		t.Fatalf("List = %+v", infos)
	}
	if infos[0].Available || !infos[1].Available {
		t.Fatalf("availability wrong: %+v", infos)
	}
	caps, err := reg.Capabilities("zeta")
	if err != nil || caps.Kind != types.KindLineText {
		t.Fatalf("Capabilities = %+v, %v", caps, err)
	}
	if got := reg.GetAvailableEngines(); len(got) != 1 || got[0] != "zeta" {
		t.Fatalf("GetAvailableEngines = %v", got)
	}
}

func TestRegistryLoadWithoutLoader(t *testing.T) {
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{ID: "bare"})
	_, err := reg.Load(context.Background(), types.SessionOptions{Engine: "bare"})
	if utils.GetErrorType(err) != utils.ErrorTypeUnsupported {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}
