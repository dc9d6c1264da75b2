// Package convert maps transport messages to the command service and back.
// Requests and replies travel as google.protobuf.Struct so every entity kind shares one
// wire shape; payloads are re-encoded to JSON for the command decoders.
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/league-keeper/internal/command"
	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/service"
)

// Request and reply field names.
const (
	FieldKind        = "kind"
	FieldPayload     = "payload"
	FieldID          = "id"
	FieldLastUpdated = "lastUpdated"
)

// --- helpers ---

func str(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func list(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

// --- requests (client -> server) ---

// FromProtoKind reads the command kind of a request.
func FromProtoKind(in *structpb.Struct) (command.Kind, error) {
	kind := str(in, FieldKind)
	if kind == "" {
		return "", fmt.Errorf("missing %s: %w", FieldKind, errs.ErrValidationFailed)
	}
	return command.Kind(kind), nil
}

// FromProtoApply unpacks an apply request into its kind and JSON payload.
func FromProtoApply(in *structpb.Struct) (command.Kind, []byte, error) {
	kind, err := FromProtoKind(in)
	if err != nil {
		return "", nil, err
	}
	payload := in.GetFields()[FieldPayload].GetStructValue()
	if payload == nil {
		return "", nil, fmt.Errorf("missing %s: %w", FieldPayload, errs.ErrValidationFailed)
	}
	b, err := protojson.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode payload: %w", err)
	}
	return kind, b, nil
}

// DeleteRequest is an unpacked delete request.
type DeleteRequest struct {
	Kind        command.Kind
	ID          u.UUID
	LastUpdated *time.Time
}

// FromProtoDelete unpacks a delete request. lastUpdated is an RFC 3339 timestamp and may be absent.
func FromProtoDelete(in *structpb.Struct) (DeleteRequest, error) {
	kind, err := FromProtoKind(in)
	if err != nil {
		return DeleteRequest{}, err
	}
	var id u.UUID
	if err := id.UnmarshalText([]byte(str(in, FieldID))); err != nil {
		return DeleteRequest{}, fmt.Errorf("invalid id: %v: %w", err, errs.ErrValidationFailed)
	}
	req := DeleteRequest{Kind: kind, ID: id}
	if raw := str(in, FieldLastUpdated); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return DeleteRequest{}, fmt.Errorf("invalid %s: %v: %w", FieldLastUpdated, err, errs.ErrValidationFailed)
		}
		req.LastUpdated = &at
	}
	return req, nil
}

// --- replies (server -> client) ---

// ToProtoOutcome converts a command outcome to the reply message. The entity is included as
// its JSON document so the caller can read back the new lastUpdated token.
func ToProtoOutcome(out service.Outcome) (*structpb.Struct, error) {
	fields := map[string]any{
		FieldKind:   string(out.Kind),
		FieldID:     out.ID.String(),
		"success":   out.Success,
		"unchanged": out.Unchanged,
		"messages":  list(out.Messages),
		"warnings":  list(out.Warnings),
		"errors":    list(out.Errors),
	}
	if out.Reason != nil {
		fields["reason"] = out.Reason.Error()
	}
	if out.Entity != nil {
		b, err := json.Marshal(out.Entity)
		if err != nil {
			return nil, fmt.Errorf("encode entity: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode entity: %w", err)
		}
		fields["entity"] = doc
	}
	if id := out.Eviction.SeasonID; id != nil {
		fields["evictSeasonId"] = id.String()
	}
	if id := out.Eviction.DivisionID; id != nil {
		fields["evictDivisionId"] = id.String()
	}
	return structpb.NewStruct(fields)
}

// ToProtoApply builds an apply request; it is what clients send.
func ToProtoApply(kind command.Kind, payload any) (*structpb.Struct, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("payload must be an object: %w", err)
	}
	return structpb.NewStruct(map[string]any{FieldKind: string(kind), FieldPayload: doc})
}

// ToProtoDelete builds a delete request.
func ToProtoDelete(req DeleteRequest) (*structpb.Struct, error) {
	fields := map[string]any{FieldKind: string(req.Kind), FieldID: req.ID.String()}
	if req.LastUpdated != nil {
		fields[FieldLastUpdated] = req.LastUpdated.Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(fields)
}
