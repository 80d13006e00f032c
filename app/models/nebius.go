// https://docs.nebius.com/studio/inference/api - OpenAI compatible images API
package models

type NebiusImageRequest struct {
	Model             string `json:"model"`
	Prompt            string `json:"prompt"`
	ResponseFormat    string `json:"response_format"`
	ResponseExtension string `json:"response_extension"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	NumInferenceSteps int    `json:"num_inference_steps"`
	NegativePrompt    string `json:"negative_prompt"`
	Seed              int    `json:"seed"`
}

type NebiusImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type NebiusErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
