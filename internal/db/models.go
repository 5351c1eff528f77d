package db

import "time"

type (
	// Image represents a source image
	Image struct {
		ID     int64
		Path   string // Unique constraint
		Width  int
		Height int
		K      int // Number of singular values
	}

	// Run represents one reconstruction and its quality
	Run struct {
		ID      int64
		RunID   string // Unique constraint
		ImageID int64

		// Parameters
		Mode       string
		Value      float64
		Components int
		// Unique constraint on (ImageID, Mode, Value)

		// Evaluation metrics
		Energy    float64
		Frobenius float64
		RMSE      float64
		PSNR      float64 // +Inf for a lossless run, stored as NULL
		SSIM      float64
		Ratio     float64

		OutputPath string
		CreatedAt  time.Time
	}
)
