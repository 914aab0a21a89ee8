// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt decodes a JSON number, a numeric string, or null. The Federal
// Register returns executive order numbers and page numbers in either form.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// ExecutiveOrder is one executive order as listed by the Federal Register
// documents API, plus the local artifact path assigned after download.
type ExecutiveOrder struct {
	Citation                  string  `json:"citation" yaml:"citation"`
	DocumentNumber            string  `json:"document_number" yaml:"document_number"`
	EndPage                   FlexInt `json:"end_page" yaml:"end_page"`
	HTMLURL                   string  `json:"html_url" yaml:"html_url"`
	PDFURL                    string  `json:"pdf_url" yaml:"pdf_url"`
	Type                      string  `json:"type" yaml:"type"`
	Subtype                   string  `json:"subtype" yaml:"subtype"`
	PublicationDate           string  `json:"publication_date" yaml:"publication_date"`
	SigningDate               string  `json:"signing_date" yaml:"signing_date"`
	StartPage                 FlexInt `json:"start_page" yaml:"start_page"`
	Title                     string  `json:"title" yaml:"title"`
	DispositionNotes          string  `json:"disposition_notes" yaml:"disposition_notes"`
	Number                    FlexInt `json:"executive_order_number" yaml:"executive_order_number"`
	NotReceivedForPublication bool    `json:"not_received_for_publication" yaml:"not_received_for_publication"`
	FullTextXMLURL            string  `json:"full_text_xml_url" yaml:"full_text_xml_url"`
	BodyHTMLURL               string  `json:"body_html_url" yaml:"body_html_url"`
	JSONURL                   string  `json:"json_url" yaml:"json_url"`

	// President is the display name of the issuing president. Set by the
	// fetcher, not returned by the API.
	President string `json:"president,omitempty" yaml:"president,omitempty"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// PageCount is the number of PDF pages, or 0 when the PDF could not be read.
	PageCount int `json:"page_count,omitempty" yaml:"page_count,omitempty"`
}

// OrderFields lists the fields[] requested from the documents API.
var OrderFields = []string{
	"citation",
	"document_number",
	"end_page",
	"html_url",
	"pdf_url",
	"type",
	"subtype",
	"publication_date",
	"signing_date",
	"start_page",
	"title",
	"disposition_notes",
	"executive_order_number",
	"not_received_for_publication",
	"full_text_xml_url",
	"body_html_url",
	"json_url",
}

// FileStem is the file name stem shared by every artifact of the order,
// e.g. "EO-14147".
func (o *ExecutiveOrder) FileStem() string {
	return fmt.Sprintf("EO-%d", o.Number)
}

// President identifies an issuer filter for the documents API.
type President struct {
	// Key is the Federal Register slug (e.g. "donald-trump").
	Key string `json:"key" yaml:"key"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`
}
