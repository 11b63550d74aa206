package dto

type OnboardRequest struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type OnboardResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	UserData *UserResponse `json:"user_data,omitempty"`
}

type AcceptInviteRequest struct {
	Code string `json:"invite_code"`
}

type ConsentRequest struct {
	DataProcessing        bool   `json:"data_processing"`
	SentimentAnalysis     bool   `json:"sentiment_analysis"`
	AnonymizedLicensing   bool   `json:"anonymized_licensing"`
	ResearchParticipation bool   `json:"research_participation"`
	Jurisdiction          string `json:"jurisdiction,omitempty"`
}

type DeletionRequestBody struct {
	Notes string `json:"notes,omitempty"`
}

type DeletionProcessRequest struct {
	RequestID string `json:"request_id"`
}

type ValidateEncryptedRequest struct {
	EncryptedValue string `json:"encrypted_value"`
	KeyID          string `json:"key_id"`
	Algorithm      string `json:"algorithm"`
}

type JournalEntryRequest struct {
	Text              string `json:"text"`
	MoodScore         *int   `json:"mood_score,omitempty"`
	SharedWithPartner bool   `json:"shared_with_partner"`
}
