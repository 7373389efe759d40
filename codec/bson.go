package codec

import (
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec encodes documents only: the top-level value must be a struct,
// a map or a bson.D.
type bsonCodec struct{}

func (bsonCodec) Format() Format { return BSON }

func (bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

func (bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}
