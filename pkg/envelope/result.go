package envelope

// ApiError is the declared error payload shape; it is not Go's error
// interface so that its binary and JSON encodings stay byte-for-byte under
// the control of this package rather than fmt's %v formatting.
type ApiError struct {
	Message string `json:"message"`
}

func (e ApiError) EncodeBinary(w *Writer) { w.WriteString(e.Message) }

func DecodeApiError(r *Reader) (ApiError, error) {
	msg, err := r.ReadString()
	if err != nil {
		return ApiError{}, err
	}
	return ApiError{Message: msg}, nil
}

// Result mirrors the spec's Result<T, ApiError>: exactly one of Value or
// Err is meaningful, selected by Ok.
type Result[T any] struct {
	Ok    bool
	Value T
	Err   ApiError
}

func Okay[T any](v T) Result[T] { return Result[T]{Ok: true, Value: v} }

func Error[T any](msg string) Result[T] { return Result[T]{Ok: false, Err: ApiError{Message: msg}} }

// EncodeResult writes Result<T,ApiError> as (bool ok, value-or-error).
func EncodeResult[T any](w *Writer, res Result[T], encodeValue func(*Writer, T)) {
	w.WriteBool(res.Ok)
	if res.Ok {
		encodeValue(w, res.Value)
	} else {
		res.Err.EncodeBinary(w)
	}
}

// DecodeResult reads Result<T,ApiError>.
func DecodeResult[T any](r *Reader, decodeValue func(*Reader) (T, error)) (Result[T], error) {
	ok, err := r.ReadBool()
	if err != nil {
		return Result[T]{}, err
	}
	if ok {
		v, err := decodeValue(r)
		if err != nil {
			return Result[T]{}, err
		}
		return Okay(v), nil
	}
	apiErr, err := DecodeApiError(r)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Ok: false, Err: apiErr}, nil
}
