package openai

// Role prompts for the chat-backed capabilities. The wording keeps every
// model on a short leash: context-only answers, no external knowledge, and
// machine-readable output where the pipeline parses the response.

const rewriteRole = "You rewrite a user's question into short search queries for semantic retrieval.\n" +
	"Return the alternative queries one per line, no numbering, no extra text.\n" +
	"Use synonyms and related phrases that may appear in books.\n" +
	"Do NOT answer the question."

const judgeRole = "You are a strict relevance filter.\n" +
	"Output ONLY comma-separated integers (e.g., 0,2,3) or -1.\n" +
	"No extra words."

const judgePromptHeader = "You are given a question and a list of text chunks.\n" +
	"Select ONLY the chunks that contain information directly relevant to the question.\n" +
	"Return ONLY indices as comma-separated integers, like: 0,2,3\n" +
	"If none are relevant, return: -1\n"
