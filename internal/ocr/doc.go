// Package ocr wraps the external Tesseract binary behind a small client.
//
// The client feeds a preprocessed PNG on stdin and reads newline-separated
// text from stdout. Recognition is stateless; language, page segmentation
// mode, and the character whitelist come from configuration. An Executor
// seam allows tests to script engine behaviour without the binary installed.
package ocr
