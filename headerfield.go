package http2

import "sync"

// HeaderField is one name/value pair as it moves between the wire HPACK
// block and a fasthttp request/response. Acquire one from the pool with
// AcquireHeaderField instead of allocating directly.
type HeaderField struct {
	key, value []byte
	sensitive  bool
}

func (hf *HeaderField) String() string {
	return string(hf.AppendBytes(nil))
}

var headerFieldPool = sync.Pool{
	New: func() interface{} {
		return &HeaderField{}
	},
}

func AcquireHeaderField() *HeaderField {
	return headerFieldPool.Get().(*HeaderField)
}

func ReleaseHeaderField(hf *HeaderField) {
	hf.Reset()
	headerFieldPool.Put(hf)
}

func (hf *HeaderField) Empty() bool {
	return len(hf.key) == 0 && len(hf.value) == 0
}

func (hf *HeaderField) Reset() {
	hf.key = hf.key[:0]
	hf.value = hf.value[:0]
	hf.sensitive = false
}

func (hf *HeaderField) AppendBytes(dst []byte) []byte {
	dst = append(dst, hf.key...)
	dst = append(dst, ':', ' ')
	dst = append(dst, hf.value...)
	return dst
}

// Size is the RFC 7541 section 4.1 accounting size of the field.
func (hf *HeaderField) Size() int {
	return len(hf.key) + len(hf.value) + 32
}

func (hf *HeaderField) CopyTo(other *HeaderField) {
	other.key = append(other.key[:0], hf.key...)
	other.value = append(other.value[:0], hf.value...)
	other.sensitive = hf.sensitive
}

func (hf *HeaderField) Set(k, v string) {
	hf.SetKey(k)
	hf.SetValue(v)
}

func (hf *HeaderField) SetBytes(k, v []byte) {
	hf.SetKeyBytes(k)
	hf.SetValueBytes(v)
}

func (hf *HeaderField) Key() string   { return string(hf.key) }
func (hf *HeaderField) Value() string { return string(hf.value) }

func (hf *HeaderField) KeyBytes() []byte   { return hf.key }
func (hf *HeaderField) ValueBytes() []byte { return hf.value }

func (hf *HeaderField) SetKey(key string) {
	hf.key = append(hf.key[:0], key...)
}

func (hf *HeaderField) SetValue(value string) {
	hf.value = append(hf.value[:0], value...)
}

func (hf *HeaderField) SetKeyBytes(key []byte) {
	hf.key = append(hf.key[:0], key...)
}

func (hf *HeaderField) SetValueBytes(value []byte) {
	hf.value = append(hf.value[:0], value...)
}

// IsPseudo reports whether the field's key starts with ':' (:method,
// :path, :scheme, :authority, :status).
func (hf *HeaderField) IsPseudo() bool {
	return len(hf.key) > 0 && hf.key[0] == ':'
}

func (hf *HeaderField) IsSensitive() bool {
	return hf.sensitive
}

func (hf *HeaderField) SetSensitive(v bool) {
	hf.sensitive = v
}
