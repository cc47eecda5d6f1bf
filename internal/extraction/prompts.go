package extraction

const systemPrompt = `You are an expert document analyzer. Your task is to extract all information from the uploaded document.
The document could be a bill, receipt, menu, form, or any other type of document.

Please analyze the document carefully and extract ALL text and relevant information.
Then, organize the extracted information in a well-structured markdown format with:
- Clear headings and subheadings
- Properly formatted lists where appropriate
- Tables for tabular data
- Bold text for important information like totals, dates, or key identifiers

Be comprehensive in your extraction but organize the information logically.
If the document is a receipt or bill, include details like:
- Business name and contact information
- Date and time
- Items purchased with prices
- Subtotals, taxes, and totals
- Payment methods

If it's a menu, include:
- Restaurant name
- Categories of food
- Items with descriptions and prices

Output only the extracted content, without any commentary.`

const userPrompt = "Extract the content of the attached document."

const textLayerHint = "\n\nThe PDF also carries this embedded text layer, which may be incomplete or out of order:\n"

const maxTextLayerRunes = 8000
