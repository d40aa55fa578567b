package vision

// DescriptionSystemPrompt steers the model toward WCAG 1.2.3 Level A
// compliant audio descriptions.
const DescriptionSystemPrompt = "You are an expert at creating WCAG 1.2.3 Level A compliant audio descriptions. " +
	"Provide clear, concise descriptions of visual content focusing on important visual information, " +
	"actions, settings, and scene changes. Keep descriptions under 15 seconds when spoken."

// DescriptionUserPrompt accompanies the frame image in the user message.
const DescriptionUserPrompt = "Describe this scene for audio description accessibility. " +
	"Focus on the environment, people, actions, and important visual details. Be concise and clear."
