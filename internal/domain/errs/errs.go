package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Violations поле -> код ошибки ("required", "must_be_positive", ...).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

func (v Violations) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return strings.Join(parts, ", ")
}

// ValidationError некорректный ввод; возвращается до любой записи.
type ValidationError struct {
	Op     string
	Fields Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input (%s)", e.Op, e.Fields)
}

func Invalid(op string, v Violations) error {
	return &ValidationError{Op: op, Fields: v}
}

// ReferenceError ссылка на несуществующую сущность (поставщик, закупка).
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func Dangling(entity string, id int64) error {
	return &ReferenceError{Entity: entity, ID: id}
}

// StorageError сбой хранилища, пробрасывается как есть, без повторов.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage заворачивает err в StorageError; nil остаётся nil,
// уже завёрнутая ошибка не заворачивается повторно.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsReference(err error) bool {
	var e *ReferenceError
	return errors.As(err, &e)
}

func IsStorage(err error) bool {
	var e *StorageError
	return errors.As(err, &e)
}
