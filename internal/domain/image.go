package domain

// Branch identifies which external call served a request
type Branch string

const (
	BranchUploadEdit Branch = "upload_edit"
	BranchLastEdit   Branch = "last_edit"
	BranchGenerate   Branch = "generate"
)
