package token

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// FromValue converts a generic Go value (maps, slices, scalars) into a token
// Source. Map keys are emitted in sorted order so the stream is deterministic.
// Time values are emitted as RFC 3339 strings; other encoding.TextMarshaler
// values use their text form.
func FromValue(v any) (Source, error) {
	var out []Token
	if err := appendValue(&out, v); err != nil {
		return nil, err
	}
	return FromTokens(out...), nil
}

func appendValue(out *[]Token, v any) error {
	emit := func(t Token) {
		t.Offset = -1
		*out = append(*out, t)
	}
	switch t := v.(type) {
	case nil:
		emit(Token{Kind: Null})
		return nil
	case string:
		emit(Token{Kind: String, String: t})
		return nil
	case bool:
		emit(Token{Kind: Bool, Bool: t})
		return nil
	case json.Number:
		emit(Token{Kind: Number, Number: t.String()})
		return nil
	case int:
		emit(Token{Kind: Number, Number: strconv.Itoa(t)})
		return nil
	case int64:
		emit(Token{Kind: Number, Number: strconv.FormatInt(t, 10)})
		return nil
	case uint64:
		emit(Token{Kind: Number, Number: strconv.FormatUint(t, 10)})
		return nil
	case float64:
		s, err := formatFloat(t)
		if err != nil {
			return err
		}
		emit(Token{Kind: Number, Number: s})
		return nil
	case time.Time:
		emit(Token{Kind: String, String: t.Format(time.RFC3339Nano)})
		return nil
	case map[string]any:
		emit(Token{Kind: BeginObject})
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			emit(Token{Kind: Key, String: k})
			if err := appendValue(out, t[k]); err != nil {
				return err
			}
		}
		emit(Token{Kind: EndObject})
		return nil
	case []any:
		emit(Token{Kind: BeginArray})
		for _, e := range t {
			if err := appendValue(out, e); err != nil {
				return err
			}
		}
		emit(Token{Kind: EndArray})
		return nil
	case encoding.TextMarshaler:
		b, err := t.MarshalText()
		if err != nil {
			return err
		}
		emit(Token{Kind: String, String: string(b)})
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		emit(Token{Kind: Number, Number: strconv.FormatInt(rv.Int(), 10)})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		emit(Token{Kind: Number, Number: strconv.FormatUint(rv.Uint(), 10)})
	case reflect.Float32:
		s, err := formatFloat(rv.Float())
		if err != nil {
			return err
		}
		emit(Token{Kind: Number, Number: s})
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return appendValue(out, items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("token: unsupported map key type %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return appendValue(out, m)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			emit(Token{Kind: Null})
			return nil
		}
		return appendValue(out, rv.Elem().Interface())
	default:
		return fmt.Errorf("token: unsupported value type %T", v)
	}
	return nil
}

func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("token: non-finite number %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// Decode builds a generic value from the token stream. Numbers are decoded as
// json.Number to keep their literal text.
func Decode(src Source) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	return decodeValue(src, tok)
}

func decodeValue(src Source, tok Token) (any, error) {
	switch tok.Kind {
	case BeginObject:
		return decodeObject(src)
	case BeginArray:
		return decodeArray(src)
	case String:
		return tok.String, nil
	case Number:
		return json.Number(tok.Number), nil
	case Bool:
		return tok.Bool, nil
	case Null:
		return nil, nil
	default:
		return nil, UnexpectedError(tok)
	}
}

func decodeObject(src Source) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if tok.Kind == EndObject {
			return m, nil
		}
		if tok.Kind != Key {
			return nil, UnexpectedError(tok)
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func decodeArray(src Source) (any, error) {
	arr := []any{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if tok.Kind == EndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
