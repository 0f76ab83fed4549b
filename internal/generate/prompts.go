package generate

const defaultMetaPrompt = `You are a dataset builder. Read the game guide excerpt below and produce question-and-answer dialogues a player might have about it.

Context:
{context}

Rules:
- Output one JSON object per line (JSONL), nothing else. No prose, no code fences.
- Each object has the form: {"conversations": [{"role": "user", "content": "..."}, {"role": "assistant", "content": "..."}]}
- Every dialogue needs at least one user turn and one assistant turn.
- Questions must be answerable from the excerpt alone; answers must only use facts from the excerpt.
- Write natural, specific questions. Avoid "what does this section say".
- Produce between 2 and 6 dialogues depending on how much distinct information the excerpt carries.

Guide excerpt:`
