package ai

import "fmt"

// Prompts are part of the fixed service contract. The scoring semantics of
// the vocal prompt (omission penalty) are what bounds correctness by concept
// coverage.

func explainPrompt(language string) string {
	return fmt.Sprintf(`Analyze the provided content and explain it clearly in %s.

Instructions:
1. Provide a detailed summary of the core concept.
2. Identify the main paragraphs/sections in the content. For each, provide the 'originalText' (a short summary of that block) and a detailed 'explanation'.
3. Provide 3 subject examples. For each, include the 'text' of the example and a clear 'explanation' of why it matters.
4. Provide 2 real-time examples as a casual conversation between friends. Include 'persona', 'scenario' (the dialogue), and a separate 'explanation' of the lesson learned.

Return result as JSON.`, language)
}

func assessPrompt(referenceText, language string) string {
	return fmt.Sprintf(`Act as a strict yet helpful teacher. Compare the student's uploaded answer sheets against the provided reference/subject matter: "%s".
For EACH page, assess its correctness as a percentage (0-100).
Detail what exactly is wrong and provide the specific correction points.
Explain everything in %s.

Return result as JSON matching the assessment schema.`, referenceText, language)
}

func vocalPrompt(referenceIsText bool, language string) string {
	referenceForm := "an image"
	if referenceIsText {
		referenceForm = "text"
	}

	return fmt.Sprintf(`Act as a high-precision neural examiner. Your task is to perform a rigorous GAP ANALYSIS between the student's spoken answer (audio) and the provided reference content.

Reference content is provided as %s.

Evaluation Methodology:
1. SCAN REFERENCE: Identify all key concepts, facts, and details present in the reference material.
2. SCAN SPOKEN ANSWER: Transcribe the audio and map it against the identified key concepts.
3. CALCULATE SCORE:
   - 100%% is reserved for a perfect, comprehensive explanation covering ALL key points accurately.
   - OMISSION PENALTY: If the user only explains 50%% of the concepts found in the reference, the 'correctnessPercentage' MUST be 50%% or lower. Do not be lenient.
   - ACCURACY PENALTY: Deduct significantly for any misinformation or incorrect definitions compared to the reference.

Provide feedback in %s including:
1. 'correctnessPercentage': A precise score (0-100) based strictly on coverage and accuracy.
2. 'transcription': A verbatim transcription of the user's spoken answer.
3. 'grammarMistakes': List linguistic, grammar, or heavy pronunciation errors found.
4. 'contentFeedback':
    - 'missedPoints': A list of specific concepts from the reference that were COMPLETELY OMITTED or glossed over.
    - 'accuracyReview': A concise evaluation of what was explained well vs what was incorrect.
5. 'enhancementSuggestions': Strategic advice on how to improve verbal recall and explanation depth for this specific topic.

Return the result strictly as a JSON object.`, referenceForm, language)
}
