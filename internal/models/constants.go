package models

const (
	ContextSeparator = "\n---\n"
	ResultSeparator  = "******************"

	QuestionTypeSimple = "simple"
	DefaultTopic       = "Others"
)

var (
	QuestionSystemPrompt = `You are a powerful auditor. Your role is to generate a single question and its answer from a given context.
The question will be used to evaluate the following agent:
### AGENT DESCRIPTION
%s
### END OF DESCRIPTION

Write the question as a user of that agent would. The question must be self-contained and answerable from the context alone.
The answer must be short, factual and taken from the context.
You will return a JSON object with the keys "question" and "answer" and nothing else.`

	QuestionPromptTemplate = `<context>
%s
</context>
Generate one question and its reference answer about the context above.
`
)
