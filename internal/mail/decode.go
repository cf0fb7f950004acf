package mail

import (
	"bytes"
	"io"
	"mime"
	"strings"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func init() {
	// Register GBK so go-message can decode bodies from mailboxes that
	// still send legacy Chinese charsets; otherwise parsing fails with
	// `unhandled charset "gbk"`.
	charset.RegisterEncoding("gbk", simplifiedchinese.GBK)
}

// wordDecoder decodes RFC 2047 encoded words, resolving charsets through
// go-message's registry.
var wordDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// decodeHeader decodes a MIME encoded-word header value into plain text.
// Unknown or malformed encodings degrade to the raw value with invalid
// bytes dropped rather than returning an error.
func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return strings.ToValidUTF8(value, "")
	}
	return strings.ToValidUTF8(decoded, "")
}

// extractPlainBody walks the MIME structure of a raw RFC 822 message and
// returns the first text/plain part whose disposition is not an attachment.
// Non-multipart messages yield their single decoded payload whatever its
// content type; only a multipart message without a text/plain part yields
// "". Decode failures fall back to the raw payload text instead of an error.
func extractPlainBody(raw []byte) string {
	ent, err := gomessage.Read(bytes.NewReader(raw))
	if ent == nil || (err != nil && !gomessage.IsUnknownCharset(err)) {
		return rawPayload(raw)
	}

	mediaType, _, _ := ent.Header.ContentType()
	if !strings.HasPrefix(mediaType, "multipart/") {
		body, readErr := io.ReadAll(ent.Body)
		if readErr != nil {
			return rawPayload(raw)
		}
		return strings.ToValidUTF8(string(body), "")
	}

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if mr == nil || (err != nil && !gomessage.IsUnknownCharset(err)) {
		return rawPayload(raw)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		inline, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			// Attachment parts never contribute a body.
			continue
		}

		contentType, _, _ := inline.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}

		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}
		return strings.ToValidUTF8(string(body), "")
	}

	return ""
}

// rawPayload returns the undecoded payload of a message whose MIME
// structure could not be parsed: everything after the header separator,
// or the whole input when no separator is present.
func rawPayload(raw []byte) string {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return strings.ToValidUTF8(string(raw[i+4:]), "")
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return strings.ToValidUTF8(string(raw[i+2:]), "")
	}
	return strings.ToValidUTF8(string(raw), "")
}
