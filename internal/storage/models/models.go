package models

import (
	"strings"
	"time"
)

type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
)

type DocType string

const (
	DocTypeUnknown   DocType = "unknown"
	DocTypeReceipt   DocType = "receipt"
	DocTypeInvoice   DocType = "invoice"
	DocTypeBill      DocType = "bill"
	DocTypeStatement DocType = "statement"
	DocTypeForm      DocType = "form"
	DocTypeMenu      DocType = "menu"
	DocTypeContract  DocType = "contract"
	DocTypeReport    DocType = "report"
	DocTypeLetter    DocType = "letter"
	DocTypeOther     DocType = "other"
)

// DocTypes lists the categories a classifier may assign.
var DocTypes = []DocType{
	DocTypeReceipt, DocTypeInvoice, DocTypeBill, DocTypeStatement, DocTypeForm,
	DocTypeMenu, DocTypeContract, DocTypeReport, DocTypeLetter, DocTypeOther,
}

// ParseDocType maps any string onto the closed category set. Unrecognised
// values, including "unknown", become DocTypeOther.
func ParseDocType(s string) DocType {
	candidate := DocType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range DocTypes {
		if candidate == t {
			return t
		}
	}
	return DocTypeOther
}

// PlaceholderTitle marks a document whose title has not been generated yet.
const PlaceholderTitle = "Processing..."

type Document struct {
	ID             string     `json:"_id"`
	Title          string     `json:"title"`
	DocType        DocType    `json:"doc_type"`
	FileType       FileType   `json:"file_type"`
	ExtractedText  string     `json:"extracted_text"`
	EncodedContent string     `json:"image_base64,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastChatAt     *time.Time `json:"last_chat_at"`
	ChatCount      int        `json:"chat_count"`
}

type DocumentSummary struct {
	ID         string     `json:"_id"`
	Title      string     `json:"title"`
	DocType    DocType    `json:"doc_type"`
	FileType   FileType   `json:"file_type"`
	CreatedAt  time.Time  `json:"created_at"`
	LastChatAt *time.Time `json:"last_chat_at"`
	ChatCount  int        `json:"chat_count"`
}

// DocumentUpdate holds the fields a client may change after ingestion.
// Nil fields are left untouched.
type DocumentUpdate struct {
	Title         *string  `json:"title,omitempty"`
	DocType       *DocType `json:"doc_type,omitempty"`
	ExtractedText *string  `json:"extracted_text,omitempty"`
}

func (u DocumentUpdate) IsEmpty() bool {
	return u.Title == nil && u.DocType == nil && u.ExtractedText == nil
}

const ToolSearch = "search"

type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type ToolInvocation struct {
	ToolName string      `json:"tool_name"`
	Query    *string     `json:"query"`
	Results  []SearchHit `json:"results"`
}

type Chat struct {
	ID          string           `json:"_id"`
	DocumentID  string           `json:"document_id"`
	UserMessage string           `json:"user_message"`
	AIResponse  string           `json:"ai_response"`
	UsedTools   []ToolInvocation `json:"used_tools"`
	CreatedAt   time.Time        `json:"created_at"`
}
