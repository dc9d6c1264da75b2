package convert

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/league-keeper/internal/command"
	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/service"
)

func mustUUID(t *testing.T, s string) u.UUID {
	t.Helper()
	id, err := u.FromString(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestApplyRoundTrip(t *testing.T) {
	t.Parallel()

	id := mustUUID(t, "6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11")
	at := time.Date(2026, 3, 4, 19, 30, 15, 123456000, time.UTC)
	in := model.TeamUpdate{Envelope: model.Envelope{ID: id, LastUpdated: &at}, Name: "Hawks", Address: "The Swan"}

	req, err := ToProtoApply(command.KindTeam, in)
	if err != nil {
		t.Fatalf("ToProtoApply: %v", err)
	}
	kind, payload, err := FromProtoApply(req)
	if err != nil {
		t.Fatalf("FromProtoApply: %v", err)
	}
	if kind != command.KindTeam {
		t.Fatalf("kind = %q", kind)
	}

	var got model.TeamUpdate
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != id || got.Name != "Hawks" || got.Address != "The Swan" {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if got.LastUpdated == nil || !got.LastUpdated.Equal(at) {
		t.Fatalf("token lost precision: %v", got.LastUpdated)
	}
}

func TestFromProtoApply_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]any{
		"no kind":    {FieldPayload: map[string]any{}},
		"no payload": {FieldKind: "team"},
		"scalar":     {FieldKind: "team", FieldPayload: "x"},
	}
	for name, m := range cases {
		if _, _, err := FromProtoApply(mustStruct(t, m)); !errors.Is(err, errs.ErrValidationFailed) {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
	if _, _, err := FromProtoApply(nil); !errors.Is(err, errs.ErrValidationFailed) {
		t.Fatalf("nil request: %v", err)
	}
}

func TestDeleteRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 4, 19, 30, 15, 123456000, time.UTC)
	want := DeleteRequest{Kind: command.KindGame, ID: mustUUID(t, "0b5d7a6e-41a1-4c55-a3c3-7d35e9b4e0f2"), LastUpdated: &at}
	req, err := ToProtoDelete(want)
	if err != nil {
		t.Fatalf("ToProtoDelete: %v", err)
	}
	got, err := FromProtoDelete(req)
	if err != nil {
		t.Fatalf("FromProtoDelete: %v", err)
	}
	if got.Kind != want.Kind || got.ID != want.ID || !got.LastUpdated.Equal(at) {
		t.Fatalf("mismatch: %+v", got)
	}

	noToken, err := FromProtoDelete(mustStruct(t, map[string]any{FieldKind: "game", FieldID: want.ID.String()}))
	if err != nil || noToken.LastUpdated != nil {
		t.Fatalf("absent token: %+v %v", noToken, err)
	}

	for name, m := range map[string]map[string]any{
		"bad id":    {FieldKind: "game", FieldID: "nope"},
		"bad token": {FieldKind: "game", FieldID: want.ID.String(), FieldLastUpdated: "yesterday"},
	} {
		if _, err := FromProtoDelete(mustStruct(t, m)); !errors.Is(err, errs.ErrValidationFailed) {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
}

func TestToProtoOutcome(t *testing.T) {
	t.Parallel()

	id := mustUUID(t, "6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11")
	season := mustUUID(t, "2a9f3f0e-7c1b-4d8e-8f80-5a1b2c3d4e5f")
	at := time.Date(2026, 3, 4, 19, 30, 15, 123456000, time.UTC)
	out := service.Outcome{
		Kind:     command.KindTeam,
		ID:       id,
		Success:  true,
		Entity:   &model.Team{Audit: model.Audit{ID: id, Updated: &at}, Name: "Hawks"},
		Messages: []string{"Team updated"},
		Eviction: command.Eviction{SeasonID: &season},
	}
	s, err := ToProtoOutcome(out)
	if err != nil {
		t.Fatalf("ToProtoOutcome: %v", err)
	}
	f := s.GetFields()
	if !f["success"].GetBoolValue() || f["unchanged"].GetBoolValue() {
		t.Fatalf("flags: %v", f)
	}
	if f["evictSeasonId"].GetStringValue() != season.String() {
		t.Fatalf("eviction: %v", f["evictSeasonId"])
	}
	if _, ok := f["evictDivisionId"]; ok {
		t.Fatalf("unexpected division eviction")
	}
	if msgs := f["messages"].GetListValue().GetValues(); len(msgs) != 1 || msgs[0].GetStringValue() != "Team updated" {
		t.Fatalf("messages: %v", msgs)
	}
	entity := f["entity"].GetStructValue().GetFields()
	if entity["name"].GetStringValue() != "Hawks" || entity["updated"].GetStringValue() != at.Format(time.RFC3339Nano) {
		t.Fatalf("entity: %v", entity)
	}

	failed, err := ToProtoOutcome(service.Outcome{Kind: command.KindTeam, Reason: errs.ErrNotFound, Errors: []string{"Team not found"}})
	if err != nil {
		t.Fatalf("ToProtoOutcome: %v", err)
	}
	if _, ok := failed.GetFields()["entity"]; ok {
		t.Fatalf("failed outcome must not carry an entity")
	}
	if failed.GetFields()["reason"].GetStringValue() != errs.ErrNotFound.Error() {
		t.Fatalf("reason: %v", failed.GetFields()["reason"])
	}
}
