package chat

import (
	"fmt"
	"strings"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/utils"
)

const (
	deciderExcerptRunes = 500
	queryExcerptRunes   = 300
)

const systemPrompt = `You are an expert document assistant. You help users understand and extract information from various documents like receipts, bills, menus, forms, etc.

Your current task is to answer questions about the document content provided in the context.
Always refer to the document content to provide accurate answers.

RESPONSE STYLE:
- Start with a direct, concise answer to the user's question
- Present information with relevant metrics when possible (calories, prices, comparisons)
- Use bullet points and clear formatting for easy scanning
- Highlight key facts with bold text when appropriate

HANDLING DOCUMENT CONTENT:
- If information is clearly stated in the document, provide it directly.
- If the information is partially available, provide what's available and clearly indicate what's missing.
- If information is completely absent from the document, clearly state that it's not in the document.

HANDLING RELATED QUERIES:
- For questions that require external information (like nutritional info, price comparisons, reviews), use search to supplement document data
- For menu items, provide estimated calorie counts or nutritional data when requested
- For prices on receipts/invoices, provide market rate comparisons when asked
- For products or services in documents, include quality/review information when relevant

BLENDING INFORMATION:
- When using search results to supplement document data, clearly organize your response:
  1. First give direct information from the document
  2. Then provide supplemental data from search with a clear separator
  3. Finally, offer a brief, actionable conclusion or recommendation

DO NOT:
- Do not make up information that isn't in the document or search results
- Do not provide personal opinions unless supported by search data
- Do not ignore the document content in favor of just search results

FORMAT:
- Format your responses in clear, well-structured markdown
- Use headings, lists, and formatting to make information easily scannable
- Keep responses concise but comprehensive`

const responseInstructions = `Instructions for response:
1. Begin with a direct, concise answer to the question
2. Include specific metrics where possible (prices, calories, ratings)
3. Format your response with clear sections and bullet points
4. For nutrition/price/quality questions, provide a clear conclusion with specific numbers
5. When using search results, clearly indicate what's from external sources
`

const deciderPrompt = `Analyze this query and tell me if it requires external information beyond what might be in the document content.
Reply with "YES" if external search would be useful for any of these cases:
- Asking about nutritional information not typically included in menus
- Asking about market prices or price comparisons
- Asking about reviews or ratings
- Asking about alternatives or similar products/services
- Asking about additional details that wouldn't typically be in this kind of document
- Asking about historical or future information related to items in the document
- Asking which items are healthiest, best value, or other comparative judgments
- Asking about ingredients, allergens, or health impacts not typically detailed in documents

Reply with "NO" if the document content should be sufficient.

Document content snippet:
%s...

User query: %s

Reply only with YES or NO.`

const queryPrompt = `Create a specific, targeted web search query to find information about:

User Question: %s

Context: This is about a %s titled "%s" that includes information such as:
%s...

If looking for nutritional information, include "calories nutritional facts" in the query.
If looking for price comparisons, include "typical price market rate" in the query.
If looking for quality assessment, include "reviews ratings" in the query.

Return only the search query text, no additional explanation.`

func buildDeciderPrompt(question, content string) string {
	return fmt.Sprintf(deciderPrompt, utils.Truncate(content, deciderExcerptRunes), question)
}

func buildQueryPrompt(question string, doc *models.Document) string {
	return fmt.Sprintf(queryPrompt, question, doc.DocType, doc.Title, utils.Truncate(doc.ExtractedText, queryExcerptRunes))
}

func fallbackQuery(question string, doc *models.Document) string {
	return fmt.Sprintf("%s %s %s", question, doc.Title, doc.DocType)
}

// formatSearchResults renders hits as the block appended after the document content.
func formatSearchResults(hits []models.SearchHit) string {
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSearch results:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s: %s\n", h.Title, h.Snippet)
	}
	return b.String()
}

func buildAnswerPrompt(doc *models.Document, searchBlock, question string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Document Type: %s\n", doc.DocType)
	fmt.Fprintf(&b, "Document Title: %s\n\n", doc.Title)
	b.WriteString("Document Content:\n")
	b.WriteString(doc.ExtractedText)
	b.WriteString("\n\n")
	b.WriteString(searchBlock)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "User Question: %s\n\n", question)
	b.WriteString(responseInstructions)
	return b.String()
}
