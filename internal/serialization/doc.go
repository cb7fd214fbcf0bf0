// Package serialization reads and writes gradnet checkpoints: binary
// snapshots of a network's topology and parameters.
//
//	Format structure (all integers and floats little-endian):
//	  [4 bytes: Magic "GNET"]
//	  [4 bytes: Version (uint32)]
//	  [4 bytes: Layer count (uint32)]
//	  per layer:
//	    [4 bytes: input dimension (uint32)]
//	    [4 bytes: output dimension (uint32)]
//	    [1 byte:  activation code (0=Identity, 1=Sigmoid, 2=ReLU, 3=Softmax)]
//	    [8*inDim*outDim bytes: weights (float64, row-major, row = output unit)]
//	    [8*outDim bytes: biases (float64)]
//
// Load validates the magic and version before reading anything else, and
// checks each layer's input dimension against the previous layer's output
// dimension before allocating that layer's parameter buffers.
//
// Save writes to a temporary file in the checkpoint's directory and
// renames it into place, so a failed write never corrupts a previously
// saved checkpoint. A failed write is retried once before the error is
// surfaced.
package serialization
