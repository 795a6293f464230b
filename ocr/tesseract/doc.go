// Package tesseract provides the default OCR engine, backed by the gosseract
// client. Importing it installs the engine as the ocr package default.
//
// The engine requires cgo; when built with CGO_ENABLED=0 the package is empty
// and no default engine is installed.
package tesseract
