package captions

import (
	"maps"
	"slices"
)

// CaptionPrompt restructures an image description page around the {{cs}}
// caption template.
const CaptionPrompt = "The assistant is helping format image captions. First, the assistant places the following information at the top of the page: \"== File info ==\n{{cs\n| caption =\n| source =\n}}\n\n== File license ==\n{{Bn-excerpt}}\n\n\". " +
	"Second, locate the caption and if it exists put it in the caption field. Third, locate the source and if it exists, place it in the source field. " +
	"In the caption field, ensure correct transliterations for Bahá’í terms:  - Replace \"Baha'u'llah\" with \"Bahá’u’lláh.\"\n  - Replace \"Baha'is\" with \"Bahá’ís.\"\n  - Replace \"Bahá'í\" with \"Bahá’í.\"\n  - Replace \"Bahji\" with \"Bahjí.\"\n- If the caption is wrapped in quotation marks, remove them.\n\n" +
	"For the source field: If the source is in the format \"From BN [number] p [number],\" wrap it in the template {{bns|[number]|[number]}}.\n\n" +
	"Category Management:\n- Remove tags like [[Category:Baha'i News No xxx]] but preserve other category tags at the bottom of the page."

// ProofreadPrompt corrects OCR errors and transliteration marks.
const ProofreadPrompt = "Correct mistakes that were introduced because of OCR software errors. Fix diacritic marks in Persian translitarted words. " +
	"Do not make any corrections to text between two curly brackets. Be sure to correct 'Abdu'l-Bahá or any variations to ‘Abdu’l-Bahá. " +
	"Use ‘ and ’ characters where appropriate and not '. Bahá’í is correct but Bahá'í is not."

// BiographyPrompt extracts biographical fields as a JSON object.
const BiographyPrompt = "You are extracting structured Baha’i-related biographical data from Wikipedia-style articles. " +
	"Your goal is to return a JSON object with any of the following fields **if identifiable from the text**. " +
	"Even if the article doesn't have a template, you should analyze the full text carefully and infer data when appropriate. " +
	"Do not guess. Only include fields that are clearly supported by the text, either explicitly or by strong implication.\n\n" +
	"Your output must be a single valid JSON object and contain only the following keys if relevant:\n" +
	"- birth_name (Source page specifically mentions a different birth name)\n" +
	"- birth_date\n" +
	"- birth_place\n" +
	"- declaration_date (when the person became a Bahá’í, if known)\n" +
	"- declaration_place\n" +
	"- death_date\n" +
	"- death_place\n" +
	"- nationality\n" +
	"- lsa_member (list of places/years if known)\n" +
	"- abm (location and/or years if known)\n" +
	"- nsa_member (list of Assemblies/years if known)\n" +
	"- counsellor (region/years)\n" +
	"- itc_member (years of service)\n" +
	"- uhj_member (years of service)\n" +
	"- custodian (years of service)\n" +
	"- appointedby (Only used in conjunction with the position Hand of the Cause of God)\n\n" +
	"Examples:\n" +
	"- If the article says someone 'was elected to the National Spiritual Assembly of Canada in 1953', return:\n" +
	"\"nsa_member\": [{\"assembly\": \"Canada\", \"start_date\": \"1953\"}] " +
	"- If the article says they were a 'counsellor for Africa from 1981 to 1986', return:\n" +
	"\"counsellor\": [{\"region\": \"Africa\", \"start_date\": \"1981\", \"end_date\": \"1986\"}] " +
	"- If it says they were a member of a Local Spiritual Assembly of Manchester, return:\n" +
	"\"lsa_member\": [{\"assembly\": \"Manchester\"}] " +
	"- If no info is available on a field, omit it.\n\n" +
	"Output only the JSON object and nothing else."

var rewritePrompts = map[string]string{
	"captions":  CaptionPrompt,
	"proofread": ProofreadPrompt,
}

// RewritePrompt returns the named rewrite instruction.
func RewritePrompt(name string) (string, bool) {
	p, ok := rewritePrompts[name]
	return p, ok
}

// RewritePromptNames lists the names accepted by RewritePrompt.
func RewritePromptNames() []string {
	return slices.Sorted(maps.Keys(rewritePrompts))
}
