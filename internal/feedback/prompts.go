package feedback

const analysisSystemPrompt = `You are an expert in designing system prompts for voice agents.
You read a call transcript and rewrite the agent's system prompt so the next call goes better.
Keep what works, fix what the transcript shows went wrong, and keep the prompt concise.
Return ONLY the rewritten system prompt, without commentary, headings or code fences.`

const analysisUserTemplate = `Current system prompt:
"""
%s
"""

Conversation summary: %s

Transcript:
%s

Analyze how the agent performed in this conversation and return an improved system prompt.`
