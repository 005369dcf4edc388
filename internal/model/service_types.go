package model

// Derived progress statistics. Never stored; computed from the ledger
// and the hierarchy on demand (cached in Redis by the aggregator).

type BlockProgress struct {
	ContentBlockID   uint        `json:"contentBlockId"`
	Type             ContentType `json:"type"`
	Title            string      `json:"title"`
	Order            int         `json:"order"`
	IsRequired       bool        `json:"isRequired"`
	IsCompleted      bool        `json:"isCompleted"`
	TimeSpentSeconds int         `json:"timeSpentSeconds"`
}

type SessionProgress struct {
	SessionID         uint            `json:"sessionId"`
	TotalBlocks       int             `json:"totalBlocks"`
	RequiredBlocks    int             `json:"requiredBlocks"`
	CompletedBlocks   int             `json:"completedBlocks"`
	CompletedRequired int             `json:"completedRequired"`
	Percentage        int             `json:"percentage"`
	Blocks            []BlockProgress `json:"blocks"`
}

type SubjectProgress struct {
	SubjectID           uint              `json:"subjectId"`
	TotalBlocks         int               `json:"totalBlocks"`
	RequiredBlocks      int               `json:"requiredBlocks"`
	CompletedBlocks     int               `json:"completedBlocks"`
	CompletedRequired   int               `json:"completedRequired"`
	Percentage          int               `json:"percentage"`
	CertificateEligible bool              `json:"certificateEligible"`
	Sessions            []SessionProgress `json:"sessions"`
}
