package event

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name      string
		ev        interface{ Validate() error }
		wantField string
	}{
		{name: "identify empty ok", ev: Identify{}},
		{name: "track ok", ev: Track{Event: "signup"}},
		{name: "track empty event", ev: Track{}, wantField: "event"},
		{name: "track blank event", ev: Track{Event: "   "}, wantField: "event"},
		{name: "page ok", ev: Page{Name: "/home"}},
		{name: "page empty name", ev: Page{}, wantField: "name"},
		{name: "screen empty name", ev: Screen{}, wantField: "name"},
		{name: "group empty id", ev: Group{}, wantField: "groupId"},
		{name: "group ok", ev: Group{GroupID: "team-1"}},
		{name: "alias empty user", ev: Alias{PreviousID: "old"}, wantField: "userId"},
		{name: "alias empty previous", ev: Alias{UserID: "new"}, wantField: "previousId"},
		{name: "alias blank previous", ev: Alias{UserID: "new", PreviousID: " "}, wantField: "previousId"},
		{name: "alias ok", ev: Alias{UserID: "new", PreviousID: "old"}},
		{
			name:      "malformed context",
			ev:        Track{Event: "x", Context: json.RawMessage(`{"locale":`)},
			wantField: "context",
		},
		{
			name:      "malformed integrations",
			ev:        Identify{Integrations: json.RawMessage(`{`)},
			wantField: "integrations",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ev.Validate()
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tc.wantField {
				t.Errorf("Validate() field = %q, want %q", verr.Field, tc.wantField)
			}
		})
	}
}

func TestTrackRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := Track{
		UserID:            "u1",
		Event:             "purchase",
		Properties:        map[string]any{"sku": "a-1", "qty": float64(2)},
		OriginalTimestamp: &ts,
		Context:           json.RawMessage(`{"locale":"en-US"}`),
		Integrations:      json.RawMessage(`{"All":true}`),
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	var out Track
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestBatchMessageTagging(t *testing.T) {
	b := Batch{
		Batch: []BatchMessage{
			{Track: &Track{Event: "step"}},
			{Alias: &Alias{UserID: "new", PreviousID: "old"}},
		},
	}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}

	// The wire form must tag each member.
	var wire struct {
		Batch []map[string]any `json:"batch"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("Unmarshal(wire) = %v", err)
	}
	if got := wire.Batch[0]["type"]; got != KindTrack {
		t.Errorf("batch[0] type = %v, want %q", got, KindTrack)
	}
	if got := wire.Batch[1]["type"]; got != KindAlias {
		t.Errorf("batch[1] type = %v, want %q", got, KindAlias)
	}

	var out Batch
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if out.Batch[0].Kind() != KindTrack || out.Batch[0].Track.Event != "step" {
		t.Errorf("batch[0] = %+v, want track %q", out.Batch[0], "step")
	}
	if out.Batch[1].Kind() != KindAlias || out.Batch[1].Alias.PreviousID != "old" {
		t.Errorf("batch[1] = %+v, want alias previousId %q", out.Batch[1], "old")
	}
}

func TestBatchMessageUnknownType(t *testing.T) {
	var m BatchMessage
	err := json.Unmarshal([]byte(`{"type":"bogus"}`), &m)
	if err == nil {
		t.Fatal("Unmarshal() = nil, want error for unknown type")
	}
}

func TestBatchValidate(t *testing.T) {
	var verr *ValidationError

	err := Batch{}.Validate()
	if !errors.As(err, &verr) || verr.Field != "batch" {
		t.Errorf("empty batch Validate() = %v, want ValidationError on batch", err)
	}

	err = Batch{Batch: []BatchMessage{{Track: &Track{}}}}.Validate()
	if !errors.As(err, &verr) || verr.Field != "event" {
		t.Errorf("invalid member Validate() = %v, want ValidationError on event", err)
	}

	err = Batch{Batch: []BatchMessage{{}}}.Validate()
	if !errors.As(err, &verr) || verr.Field != "type" {
		t.Errorf("empty member Validate() = %v, want ValidationError on type", err)
	}

	if err := (Batch{Batch: []BatchMessage{{Page: &Page{Name: "/x"}}}}).Validate(); err != nil {
		t.Errorf("valid batch Validate() = %v, want nil", err)
	}
}
