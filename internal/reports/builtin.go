package reports

// Built-in report schemas, keyed by document type and sub type. Users can
// also author their own via the schema endpoints; these cover the stock
// report flows.
var builtinSchemas = map[string]map[string]*Schema{
	"Report": {
		"Research report": {
			Name: "Research report",
			Root: object(map[string]*Field{
				"title": str("Title of the research report. Should be between 6-12 words"),
				"introduction": object(map[string]*Field{
					"context":      str("Background and context of the research"),
					"objectives":   array(str(""), "Research objectives or questions"),
					"significance": str("Importance and relevance of the research"),
				}),
				"methodology": object(map[string]*Field{
					"researchDesign": str("Overall research approach and design"),
					"participants":   str("Description of study participants or data sources"),
					"dataCollection": str("Methods used to collect data"),
					"analysisMethod": str("Techniques used to analyze the data"),
				}),
				"results": array(object(map[string]*Field{
					"finding":  str("Key research finding"),
					"evidence": array(str(""), "Supporting data or observations"),
				}), "Key findings with supporting evidence"),
				"discussion": object(map[string]*Field{
					"interpretation": array(str(""), "Interpretation of key findings"),
					"implications":   array(str(""), "Practical or theoretical implications"),
					"limitations":    array(str(""), "Study limitations and constraints"),
					"futureResearch": array(str(""), "Suggestions for future research"),
				}),
			}),
		},
		"Buyside Due Diligence": {
			Name: "Buyside Due Diligence",
			Root: object(map[string]*Field{
				"title": str("Title of the due diligence report. Should be between 6-12 words"),
				"executiveSummary": object(map[string]*Field{
					"overview":       str("High-level overview of key findings"),
					"recommendation": str("Strategic recommendation based on analysis"),
					"keyRisks":       array(str(""), "Major risks identified"),
				}),
				"businessOverview": object(map[string]*Field{
					"companyProfile":   str("Company history, mission, and business model"),
					"productOfferings": array(str(""), "Key products or services"),
					"marketPosition":   str("Current market position and competitive standing"),
				}),
				"financialAnalysis": object(map[string]*Field{
					"performance": str("Historical financial performance analysis"),
					"metrics": array(object(map[string]*Field{
						"metric":   str(""),
						"value":    str(""),
						"analysis": str(""),
					}), "Key financial metrics and ratios"),
					"forecast": str("Financial projections and growth outlook"),
				}),
				"marketAnalysis": object(map[string]*Field{
					"industryOverview": str("Market size, trends, and dynamics"),
					"competitiveLandscape": array(object(map[string]*Field{
						"competitor": str(""),
						"strengths":  array(str(""), ""),
						"weaknesses": array(str(""), ""),
					}), "Analysis of key competitors"),
					"swotAnalysis": object(map[string]*Field{
						"strengths":     array(str(""), ""),
						"weaknesses":    array(str(""), ""),
						"opportunities": array(str(""), ""),
						"threats":       array(str(""), ""),
					}),
				}),
				"operationalAssessment": object(map[string]*Field{
					"processes":    str("Key operational processes and capabilities"),
					"efficiency":   str("Operational efficiency analysis"),
					"improvements": array(str(""), "Potential areas for improvement"),
				}),
				"riskAssessment": array(object(map[string]*Field{
					"category":   str(""),
					"risks":      array(str(""), ""),
					"mitigation": str(""),
				}), "Detailed risk analysis by category"),
				"recommendations": object(map[string]*Field{
					"dealConsiderations": array(str(""), "Key considerations for the deal"),
					"nextSteps":          array(str(""), "Recommended next steps"),
					"valueCreation":      array(str(""), "Post-acquisition value creation opportunities"),
				}),
			}),
		},
		"Sellside Due Diligence": {
			Name: "Sellside Due Diligence",
			Root: object(map[string]*Field{
				"title": str("Title of the sellside due diligence report. Should be between 6-12 words"),
				"executiveSummary": object(map[string]*Field{
					"description": str("A high-level overview of the company being sold, highlighting its key strengths, market position, growth opportunities, and any notable risks."),
					"purpose":     str("To provide potential buyers with a snapshot of the business and outline why it presents a valuable opportunity for acquisition."),
				}),
				"companyOverview": object(map[string]*Field{
					"description": str("This section covers the company's history, mission, products or services, markets served, and key differentiators."),
					"purpose":     str("To offer a detailed context for understanding the core aspects of the business."),
				}),
				"financialOverview": object(map[string]*Field{
					"description": str("This section presents a thorough analysis of the company's historical financial statements and key financial ratios."),
					"purpose":     str("To give potential buyers an accurate view of the company's financial health, profitability, and growth trajectory."),
				}),
				"marketAndCompetitiveLandscape": object(map[string]*Field{
					"description": str("An analysis of the company's market dynamics, size, growth trends, key competitors, and market share."),
					"purpose":     str("To help buyers understand the external environment in which the company operates and its competitive advantages."),
				}),
				"riskFactors": object(map[string]*Field{
					"description": str("An outline of the key business, financial, operational, and legal risks facing the company."),
					"purpose":     str("To give buyers a transparent view of the challenges and exposures relevant to the acquisition."),
				}),
			}),
		},
	},
}

// BuiltinSchema resolves a stock schema by document type and sub type.
func BuiltinSchema(documentType, subType string) (*Schema, bool) {
	byType, ok := builtinSchemas[documentType]
	if !ok {
		return nil, false
	}
	schema, ok := byType[subType]
	return schema, ok
}
