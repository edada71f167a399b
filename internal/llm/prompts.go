package llm

// RisksHeading marks the structured risk block in summarizer output.
const RisksHeading = "RISKS"

const summarizeSystemPrompt = `You are a careful clinical summarization assistant.

Rules:
- Use only the provided report and KB context.
- Prefer the report over KB when they differ.
- Do not provide diagnosis or medical advice.
- If something is not in the report, say "Not stated in the report."
- Keep language clear and patient-friendly.`

const summarizeUserPrompt = `PATIENT REPORT:
%s

KB CONTEXT:
%s

Create a concise response with these sections:

### SUMMARY
- 5-8 sentences in plain language.

### KEY FINDINGS
- Bullet points grounded in the report, cited with [REPORT] or [KB:<id>].

### FOLLOW-UP POINTS
- Bullet points of next-step items explicitly present in the report.

### RISKS
A compact JSON object with the EXACT schema:
{
  "risk_flags": [
    {
      "category": "Abnormal lab|Critical condition|Medication risk|Allergy|Follow-up",
      "name": "string",
      "severity": "low|moderate|high",
      "evidence": [{"source_id": "string", "quote": "short span"}],
      "rationale": "one sentence lay explanation",
      "suggested_action": "one sentence (informational only)"
    }
  ]
}
Only include risks supported by the PATIENT REPORT. If none, return "risk_flags": [].`

const chatSystemPrompt = `You are a careful clinical information assistant. ` +
	`The patient report is your primary source. Use KB context only as secondary support. ` +
	`Never provide direct medical advice.`

const chatUserPrompt = `PATIENT REPORT:
%s

KB CONTEXT:
%s

QUESTION:
%s

Instructions:
- Cite report-grounded statements with [REPORT].
- Cite retrieved context with [KB:<id>] when used.
- If details are missing, state that clearly.`
