package models

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Request limitleri.
const (
	MaxDatasetIDLength = 128
	MaxItemsPerRequest = 1000

	// MaxItemID, kabul edilen en büyük item id. Threshold id+1 olarak
	// tutulduğu için math.MaxInt64 kullanılamaz.
	MaxItemID int64 = math.MaxInt64 - 1
)

// ReadStateView, bir kullanıcının dataset'teki kompakt okuma durumunun
// API'ye dönen hali.
//
// Threshold altındaki her id varsayılan olarak okunmuş, üstündeki her id
// okunmamıştır. ReadExceptions/UnreadExceptions bu varsayılanı override eder.
type ReadStateView struct {
	DatasetID        string  `json:"dataset_id"`
	Threshold        int64   `json:"threshold"`
	ReadExceptions   []int64 `json:"read_exceptions"`
	UnreadExceptions []int64 `json:"unread_exceptions"`
}

// ItemStatus, tek bir item'ın okundu bilgisi.
type ItemStatus struct {
	ID   int64 `json:"id"`
	Read bool  `json:"read"`
}

// ItemIDsRequest, id listesi alan endpoint'lerin body'si.
// POST .../read-state/status, .../unread, .../read, .../unread-mark
type ItemIDsRequest struct {
	IDs []int64 `json:"ids"`
}

// Validate, id listesini kontrol eder: boş olamaz, en fazla
// MaxItemsPerRequest eleman, her id pozitif.
func (r *ItemIDsRequest) Validate() error {
	if len(r.IDs) == 0 {
		return fmt.Errorf("ids is required")
	}
	return ValidateItemIDs(r.IDs)
}

// MarkAllReadRequest, POST .../read-state/read-all body'si.
//
// UpTo verilirse o id dahil her şey okundu olur. Verilmezse IDs içindeki
// en büyük id kullanılır (listede görünen her şeyi okundu yap).
type MarkAllReadRequest struct {
	UpTo *int64  `json:"up_to"`
	IDs  []int64 `json:"ids"`
}

// Validate, tam olarak bir kaynağın (up_to veya ids) verildiğini kontrol eder.
func (r *MarkAllReadRequest) Validate() error {
	switch {
	case r.UpTo != nil && len(r.IDs) > 0:
		return fmt.Errorf("up_to and ids are mutually exclusive")
	case r.UpTo != nil:
		if *r.UpTo < 0 || *r.UpTo > MaxItemID {
			return fmt.Errorf("up_to must be between 0 and %d", MaxItemID)
		}
		return nil
	case len(r.IDs) > 0:
		return ValidateItemIDs(r.IDs)
	default:
		return fmt.Errorf("up_to or ids is required")
	}
}

// ValidateItemIDs, id listesinin limitlere uyduğunu kontrol eder.
func ValidateItemIDs(ids []int64) error {
	if len(ids) > MaxItemsPerRequest {
		return fmt.Errorf("at most %d ids per request", MaxItemsPerRequest)
	}
	for _, id := range ids {
		if err := ValidateItemID(id); err != nil {
			return err
		}
	}
	return nil
}

// ValidateItemID, tek bir id'nin [1, MaxItemID] aralığında olduğunu kontrol eder.
func ValidateItemID(id int64) error {
	if id < 1 || id > MaxItemID {
		return fmt.Errorf("item ids must be between 1 and %d, got %d", MaxItemID, id)
	}
	return nil
}

// ValidateDatasetID, dataset kimliğini kontrol eder ve trim edilmiş halini döner.
func ValidateDatasetID(datasetID string) (string, error) {
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return "", fmt.Errorf("dataset id is required")
	}
	if utf8.RuneCountInString(datasetID) > MaxDatasetIDLength {
		return "", fmt.Errorf("dataset id must be at most %d characters", MaxDatasetIDLength)
	}
	return datasetID, nil
}

// ToggleResult, POST .../items/{itemId}/toggle yanıtı.
type ToggleResult struct {
	ID    int64         `json:"id"`
	Read  bool          `json:"read"`
	State ReadStateView `json:"state"`
}
