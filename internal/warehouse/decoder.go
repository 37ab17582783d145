package warehouse

// EntryFunctionDecoder is the opaque, per-framework-version boundary between
// raw on-chain transaction bytes and a WarehouseTxMaster's RelationLabel and
// EntryFunction payload. Each bytecode generation (V5 genesis, V5.2.0, V6,
// V7) gets its own implementation; the ingest pipeline only ever talks to
// this interface, which keeps the decode internals swappable and testable
// behind a deterministic fake.
type EntryFunctionDecoder interface {
	// Decode inspects rawPayload (opaque bytes, typically BCS-encoded) for
	// sender and populates label/entryFn. A decoder that does not recognize
	// the payload returns (Unknown{}, nil, nil) rather than an error —
	// decode misses are expected and are not failures.
	Decode(sender string, functionName string, rawPayload []byte) (RelationLabel, *EntryFunctionArgs, error)
}

// DecoderFunc adapts a plain function to EntryFunctionDecoder.
type DecoderFunc func(sender, functionName string, rawPayload []byte) (RelationLabel, *EntryFunctionArgs, error)

func (f DecoderFunc) Decode(sender, functionName string, rawPayload []byte) (RelationLabel, *EntryFunctionArgs, error) {
	return f(sender, functionName, rawPayload)
}

// ChainDecoders tries each decoder in order and returns the first one that
// produces anything other than Unknown{}. This models the V7-then-V6 and
// V5-genesis-then-V5.2.0 fallback chains.
func ChainDecoders(decoders ...EntryFunctionDecoder) EntryFunctionDecoder {
	return DecoderFunc(func(sender, functionName string, rawPayload []byte) (RelationLabel, *EntryFunctionArgs, error) {
		for _, d := range decoders {
			label, entry, err := d.Decode(sender, functionName, rawPayload)
			if err != nil {
				return nil, nil, err
			}
			if _, isUnknown := label.(Unknown); !isUnknown && label != nil {
				return label, entry, nil
			}
		}
		return Unknown{}, nil, nil
	})
}
