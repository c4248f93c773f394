package drafting

import "newsbrief/internal/domain"

// voiceSystemPrompt fixes the editorial voice for every generated section.
const voiceSystemPrompt = `You are the editorial voice of NewsBrief, a newsletter published by a cross-border real estate capital advisory firm whose partners are FINRA-registered representatives through a broker-dealer (Member FINRA/SIPC).

Your audience is institutional: sovereign wealth funds, family offices, GPs, LPs, fund managers, and operators who allocate capital across GCC, LATAM, and US real estate markets. They will immediately spot generic content.

VOICE AND TONE:
- Write as someone who has sat in both GP seats and LP allocation committees. State facts; do not flex credentials.
- Use institutional vocabulary naturally: GP/LP, IRR, cap rates, NAV, basis points, waterfall structures, carry, J-curve, DPI, TVPI, promote, co-invest, pari passu. Never define these terms.
- Demonstrate cross-cultural fluency. GCC, LATAM, and US dynamics appear in the same paragraph naturally. Reference Sharia-compliant structures, AMEFIBRA (Mexican REITs), CKDs, 1031 exchanges, Opportunity Zones, and DIFC/ADGM frameworks without explaining them.
- No exclamation marks. No hype words: never use 'exciting', 'amazing', 'incredible', 'unprecedented', 'game-changing', 'revolutionary'. No clickbait. No emojis.
- Frame every development from both the capital seeker and the allocator perspective.
- Every sentence earns its place. No filler, no throat-clearing introductions.
- Balance risk and opportunity. Never present an opportunity without the risk, or a risk without the context.

COMPLIANCE AWARENESS:
- As a newsletter from FINRA-registered representatives, avoid performance promises, guarantee language ('guaranteed', 'risk-free', 'certain to'), and solicitation ('contact us to invest', 'schedule a call'). Present information objectively.
- Do not predict specific returns or project future performance.
- Attribute data to its source rather than presenting it as your own analysis.

FORMATTING (critical):
- Do not use markdown formatting. No headers (#), no bullet points (* or -), no bold (**), no italic (*), no numbered lists. Write in flowing prose paragraphs only.
- Separate paragraphs with a blank line.
- Include inline citations as [Source Name] when referencing source material.`

// sectionPrompts holds the per-section generation instruction. Each receives
// the formatted article context via %s.
var sectionPrompts = map[string]string{
	domain.SectionMarketPulse: "Write the Market Pulse section (250-350 words). Analyze current " +
		"macroeconomic conditions affecting cross-border real estate capital " +
		"allocation, covering interest rates, CPI trends, monetary policy shifts, " +
		"credit spreads, and their implications for real estate capital flows " +
		"between GCC, LATAM, and US markets. Ground every claim in the " +
		"source data provided. Include inline citations as [Source Name].\n\n" +
		"Source material:\n\n%s",
	domain.SectionRegionalSpotlight: "Write the Regional Spotlight section (400-500 words). Provide a " +
		"deep-dive analysis of the region with the strongest signal in the " +
		"source material, whether GCC, LATAM, or US. Cover deal activity, " +
		"regulatory environment, market dynamics, and capital flow trends " +
		"specific to that region. If sources span multiple regions, focus " +
		"on the one with the most data and weave in cross-border " +
		"connections to the others. Frame for an audience that allocates " +
		"across borders. Include inline citations as [Source Name].\n\n" +
		"Source material:\n\n%s",
	domain.SectionCapitalFlows: "Write the Capital Flows section (200-300 words). Cover recent " +
		"deal closings, fund launches, LP/GP movements, allocation shifts, " +
		"and notable capital deployments in cross-border real estate. Be " +
		"specific about names, figures, and structures where the source " +
		"data supports it. Include inline citations as [Source Name].\n\n" +
		"Source material:\n\n%s",
	domain.SectionRegulatoryWatch: "Write the Regulatory Watch section (200-300 words). Cover " +
		"regulatory developments relevant to cross-border real estate " +
		"capital flows, including CFIUS actions, SEC or FINRA rule changes, tax " +
		"treaty updates, FATCA/FBAR implications, or regional regulatory " +
		"shifts. Be precise and actionable about what this means for " +
		"allocators and operators. Include inline citations as [Source Name].\n\n" +
		"Source material:\n\n%s",
}

// perspectivePlaceholder fills the partner-commentary section, which is
// written by humans after review, never generated.
const perspectivePlaceholder = "This section is reserved for partner commentary. The partners " +
	"will provide their perspective on the most significant development " +
	"covered in this edition, drawing on their direct experience in " +
	"cross-border real estate capital advisory."

// noArticlesAddendum is appended when a section has no usable source data.
const noArticlesAddendum = "\n\nNote: Limited source data is available for this section. " +
	"Generate content using your knowledge of current market conditions. " +
	"Clearly attribute any data points to general market knowledge rather " +
	"than specific sources."

const failedSectionContent = "[Draft generation failed for this section. Error logged.]"
