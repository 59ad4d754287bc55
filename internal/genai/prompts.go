package genai

const personaPrompt = `Generate a realistic synthetic persona for testing a conversational AI agent.

Reply with a single JSON object:
{
  "attributes": {"name": "...", "age": "...", "occupation": "...", "communication_style": "...", "technical_proficiency": "..."},
  "summary": "one-paragraph description of the persona"
}`

const scenarioPromptTemplate = `A synthetic persona is about to converse with an AI agent under test.

Scenario: %s
Agent description: %s
Persona attributes: %s

Write the persona's purpose for this conversation and a short backstory that
explains why they are reaching out. Reply with a single JSON object:
{
  "purpose": "what the persona wants out of the conversation",
  "story": "backstory grounding the purpose"
}`

const evalPromptTemplate = `Score the following conversation transcript against each objective.

Objectives (JSON): %s

Transcript (JSON): %s

For every objective, return a score between 0.0 and 1.0 and a short reason.
Reply with a single JSON object:
{
  "evaluations": [
    {"objective_id": "...", "score": 0.0, "reason": "..."}
  ]
}`
