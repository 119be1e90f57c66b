package classifier

// Prompt embeds the transcript verbatim in the fixed instruction sent to
// remote models.
func Prompt(transcript string) string {
	return `You are an emotion recognition engine.

Read the transcript of a short spoken message below and decide which single emotion best describes the speaker's tone.
Answer with exactly ONE word, such as Joy, Sadness, Anger, Calmness, Fear, Disgust, Surprise, Neutral, Excitement or Love.
Do not add punctuation, quotes or an explanation.

TRANSCRIPT:
` + transcript
}
