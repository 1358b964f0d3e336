package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// maxBodyBytes limits the size of request bodies.
const maxBodyBytes = 1_048_576

type envelope map[string]interface{}

// readIDParam retrieves the "id" URL parameter from the current request context,
// then converts it to an ObjectID. Malformed ids return an error, which the
// handlers treat exactly like an id that does not exist.
func (app *application) readIDParam(r *http.Request) (bson.ObjectID, error) {
	params := httprouter.ParamsFromContext(r.Context())

	id, err := bson.ObjectIDFromHex(params.ByName("id"))
	if err != nil {
		return bson.NilObjectID, errors.New("invalid id parameter")
	}

	return id, nil
}

// writeJSON marshals data and sends it with the given status code and any
// additional headers.
func (app *application) writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

// limitedBody remembers the first read error other than io.EOF, so an
// oversized body is reported as such whatever the decoder makes of the
// truncated stream.
type limitedBody struct {
	io.Reader
	err error
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && b.err == nil {
		b.err = err
	}
	return n, err
}

func (b *limitedBody) tooLarge() (*http.MaxBytesError, bool) {
	var maxBytesError *http.MaxBytesError
	return maxBytesError, errors.As(b.err, &maxBytesError)
}

// readJSON decodes the request body into dst. The body must hold exactly one
// JSON value whose keys all map onto fields of dst.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := &limitedBody{Reader: http.MaxBytesReader(w, r.Body, maxBodyBytes)}
	r.Body = io.NopCloser(body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if maxBytesError, ok := body.tooLarge(); ok {
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
	}
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", jsonFieldName(dst, unmarshalTypeError.Field))
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case strings.Contains(err.Error(), "unknown field "):
			fieldName := err.Error()[strings.Index(err.Error(), "unknown field ")+len("unknown field "):]
			return fmt.Errorf("body contains unknown key %s", fieldName)

		case errors.As(err, &invalidUnmarshalError):
			panic(err)

		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if maxBytesError, ok := body.tooLarge(); ok {
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
	}
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// jsonFieldName rewrites a dotted Go field path reported by the decoder
// (e.g. "Year") into the wire name the client sent (e.g. "ano").
func jsonFieldName(dst interface{}, field string) string {
	t := reflect.TypeOf(dst)
	parts := strings.Split(field, ".")

	for i, part := range parts {
		for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			break
		}

		sf, ok := structFieldByName(t, part)
		if !ok {
			break
		}
		parts[i] = wireName(sf)
		t = sf.Type
	}

	return strings.Join(parts, ".")
}

func structFieldByName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == name || wireName(sf) == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func wireName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

// readString returns a string value from the query string, or the provided
// default value if no matching key could be found.
func (app *application) readString(qs url.Values, key string, defaultValue string) string {
	s := qs.Get(key)

	if s == "" {
		return defaultValue
	}

	return s
}

// readPositiveInt reads a positive integer from the query string. Missing,
// non-numeric and non-positive values all yield defaultValue.
func (app *application) readPositiveInt(qs url.Values, key string, defaultValue int) int {
	i, err := strconv.Atoi(strings.TrimSpace(qs.Get(key)))
	if err != nil || i < 1 {
		return defaultValue
	}

	return i
}
