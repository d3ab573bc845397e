// Package serialization persists weights, optimizer hyperparameters and layers.
//
// Two levels are provided:
//
//   - A binary stream codec (Encoder/Decoder) for the primitive values a layer
//     writes in declaration order: integers, doubles, strings, and optional
//     vectors/matrices. Vectors and matrices use gonum's binary encoding,
//     prefixed by a one-byte tag that distinguishes an absent value from a
//     present one (even when it is all zeros).
//
//   - A checkpoint file format wrapping one codec payload:
//
//	Format Structure:
//	  [4 bytes: Magic "BRNC"]
//	  [4 bytes: Version (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [32 bytes: SHA-256 of payload]
//	  [8 bytes: Payload Size (uint64 LE)]
//	  [Payload: codec stream]
//
// Example usage:
//
//	header := serialization.Header{Kind: "bilinear"}
//	err := serialization.WriteFile("model.brnc", header, func(enc *serialization.Encoder) error {
//	    return layer.WriteTo(enc)
//	})
//
//	_, err = serialization.ReadFile("model.brnc", func(_ serialization.Header, dec *serialization.Decoder) error {
//	    layer, err = nn.ReadBilinear(dec, splitter)
//	    return err
//	})
package serialization
