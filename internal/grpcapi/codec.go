package grpcapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

// request — поля запроса в сыром JSON: нужно различать «не задано» и null.
type request map[string]json.RawMessage

func newRequest(in *structpb.Struct) (request, error) {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConstraintViolation, "malformed request", err)
	}
	req := request{}
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConstraintViolation, "malformed request", err)
	}
	return req, nil
}

// bind разбирает запрос целиком в структуру с json-тегами.
func (r request) bind(dst any) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return apperrors.Wrap(apperrors.KindConstraintViolation, "malformed request", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.Wrap(apperrors.KindConstraintViolation, "malformed request: "+err.Error(), err)
	}
	return nil
}

func (r request) has(key string) bool {
	_, ok := r[key]
	return ok
}

func (r request) isNull(key string) bool {
	return bytes.Equal(bytes.TrimSpace(r[key]), []byte("null"))
}

func (r request) id(key string) (uuid.UUID, error) {
	var s string
	if err := r.decode(key, &s); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperrors.ConstraintViolation(fmt.Sprintf("%s must be a UUID", key))
	}
	return id, nil
}

// optionalID — nil, если поле не задано или null.
func (r request) optionalID(key string) (*uuid.UUID, error) {
	if !r.has(key) || r.isNull(key) {
		return nil, nil
	}
	id, err := r.id(key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r request) decode(key string, dst any) error {
	raw, ok := r[key]
	if !ok {
		return apperrors.ConstraintViolation(key + " is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.ConstraintViolation(fmt.Sprintf("%s: %v", key, err))
	}
	return nil
}

// optional — указатель на значение поля или nil, если поле не задано.
func optional[T any](r request, key string) (*T, error) {
	if !r.has(key) || r.isNull(key) {
		return nil, nil
	}
	var v T
	if err := r.decode(key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// nullable — поле патча для nullable-колонки: null сбрасывает значение.
func nullable[T any](r request, key string) (model.Nullable[T], error) {
	if !r.has(key) {
		return model.Nullable[T]{}, nil
	}
	if r.isNull(key) {
		return model.Null[T](), nil
	}
	var v T
	if err := r.decode(key, &v); err != nil {
		return model.Nullable[T]{}, err
	}
	return model.Value(v), nil
}

// encode переводит ответ в Struct через JSON-представление.
func encode(v any) (*structpb.Struct, error) {
	if v == nil {
		return &structpb.Struct{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "encode response", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "encode response", err)
	}
	return out, nil
}

func toStatus(err error) error {
	return apperrors.ToGRPC(err)
}
