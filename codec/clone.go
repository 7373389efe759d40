package codec

// DeepClone copies src into dst by encoding with c and decoding the result.
// dst must be a pointer. Only fields the format can represent survive.
func DeepClone(c Codec, src, dst any) error {
	data, err := c.Marshal(src)
	if err != nil {
		return err
	}
	return c.Unmarshal(data, dst)
}
