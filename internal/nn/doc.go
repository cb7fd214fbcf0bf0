// Package nn implements the feed-forward network model for gradnet.
//
// This package provides the building blocks of the trainer:
//   - Activation: closed set of nonlinearities (Identity, Sigmoid, ReLU, Softmax)
//   - Layer: one affine transform plus activation, with a forward-pass cache
//   - Network: ordered composition of layers with forward/backward orchestration
//   - Loss functions: CrossEntropy (paired with Softmax output) and MSE
//   - Initialization: seedable Xavier/Glorot weight init
//
// Forward inference, backpropagation, and the gradient-descent parameter
// update are written out explicitly; there is no autodiff tape. A Layer
// caches its input, pre-activation and output during Forward, and Backward
// consumes that cache to turn an output gradient into parameter gradients
// plus the gradient to hand to the preceding layer.
package nn
