// Package extract turns uploaded invoice documents into structured
// records by way of a multimodal LLM call. Images go out as base64 data
// URLs, text files as plain text; PDF text extraction is a stub.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	openai "github.com/sashabaranov/go-openai"
)

// maxImageDim bounds the longest side of an image before it is encoded
// into the model request.
const maxImageDim = 2048

// AllowedExtensions are the upload types the service accepts.
var AllowedExtensions = map[string]bool{
	"pdf": true, "png": true, "jpg": true, "jpeg": true, "webp": true, "txt": true,
}

var imageTypes = map[string]bool{"png": true, "jpg": true, "jpeg": true, "webp": true}

const extractionPrompt = `You are an expert at extracting structured data from invoices.
Extract the following information and return ONLY valid JSON:
{
    "invoiceNumber": "string",
    "orderDate": "YYYY-MM-DD",
    "dueDate": "YYYY-MM-DD or null",
    "customerName": "string",
    "customerAddress": "string",
    "items": [
        {
            "productName": "string",
            "productDescription": "string",
            "quantity": number,
            "unitPrice": number,
            "lineTotal": number
        }
    ],
    "subTotal": number,
    "taxAmount": number,
    "totalAmount": number
}
If a field is not found, use null or empty string. Dates should be in YYYY-MM-DD format.`

// ChatClient is the single model call the extractor needs.
// *openai.Client satisfies it; tests substitute a fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor orchestrates file-type dispatch and prompt construction
// around a ChatClient. It is constructed once at startup and injected
// into the handlers; there is no hidden global client.
type Extractor struct {
	client ChatClient
	model  string
}

// New builds an Extractor around an existing client.
func New(client ChatClient, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// NewOpenAI builds an Extractor backed by the OpenAI API.
func NewOpenAI(apiKey, model string) *Extractor {
	return New(openai.NewClient(apiKey), model)
}

// AllowedFile reports whether filename carries an accepted extension.
func AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext != "" && AllowedExtensions[ext]
}

// ExtractInvoice reads the document at path and asks the model for the
// structured record. fileType is the declared extension, already
// validated by the caller. The returned record is fully normalized:
// every contract field is present with at worst a zero default.
func (e *Extractor) ExtractInvoice(ctx context.Context, path, fileType string) (*Invoice, error) {
	var messages []openai.ChatCompletionMessage
	if imageTypes[fileType] {
		encoded, err := encodeImage(path, fileType)
		if err != nil {
			return nil, &ExtractionError{Stage: "read", Err: err}
		}
		messages = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:image/%s;base64,%s", fileType, encoded),
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Extract all invoice data from this image and return as JSON.",
					},
				},
			},
		}
	} else {
		text, err := readText(path, fileType)
		if err != nil {
			return nil, &ExtractionError{Stage: "read", Err: err}
		}
		messages = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Extract all invoice data from this text:\n\n" + text},
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    e.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &ExtractionError{Stage: "request", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ExtractionError{Stage: "response", Err: fmt.Errorf("model returned no choices")}
	}

	var inv Invoice
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &inv); err != nil {
		return nil, &ExtractionError{Stage: "decode", Err: err}
	}
	inv.Normalize()
	return &inv, nil
}

// readText returns the plain-text content for non-image types. PDF text
// extraction is out of scope; the placeholder keeps that visible rather
// than silently faking layout extraction.
func readText(path, fileType string) (string, error) {
	if fileType == "pdf" {
		return "PDF content extraction - would use a PDF text extractor in production", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encodeImage base64-encodes the image. Oversized png/jpeg images are
// downscaled and re-encoded in their own format first so the request
// stays within model limits; webp (which imaging cannot decode) and
// anything undecodable is sent as-is.
func encodeImage(path, fileType string) (string, error) {
	if fileType == "png" || fileType == "jpg" || fileType == "jpeg" {
		if img, err := imaging.Open(path); err == nil {
			b := img.Bounds()
			if b.Dx() > maxImageDim || b.Dy() > maxImageDim {
				img = imaging.Fit(img, maxImageDim, maxImageDim, imaging.Lanczos)
				format := imaging.JPEG
				if fileType == "png" {
					format = imaging.PNG
				}
				var buf bytes.Buffer
				if err := imaging.Encode(&buf, img, format); err != nil {
					return "", err
				}
				return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
			}
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
