package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders a PDF receipt for a
// completed sale and, when the patient has an email on file, chains an
// email job so the receipt reaches their inbox.

import (
	"context"
	"encoding/json"
	"fmt"

	"medispa/internal/infra"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	SaleID       string `json:"sale_id"`
	PatientEmail string `json:"patient_email,omitempty"`
}

type ReceiptWorker struct {
	saleRepo       repository.SaleRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
}

func NewReceiptWorker(saleRepo repository.SaleRepository, dispatcher *Dispatcher, pdfStoragePath string) *ReceiptWorker {
	return &ReceiptWorker{
		saleRepo:       saleRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single receipt job:
//  1. Fetch the sale (with items) from the DB
//  2. Render the PDF receipt, retrying with backoff on transient failures
//  3. Enqueue an email job if the patient left an address
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(sale, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("sale_id", payload.SaleID).
				Msg("receipt_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		log.Error().Err(genErr).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generation failed after retries")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generated")

	if payload.PatientEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: payload.PatientEmail,
			Subject: "Tu comprobante de compra",
			Body:    fmt.Sprintf("Gracias por tu visita.\nAdjuntamos el comprobante de tu compra por un total de $%s.", sale.Total.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", payload.PatientEmail).Msg("receipt_worker: failed to enqueue email")
		} else {
			log.Info().Str("email", payload.PatientEmail).Msg("receipt_worker: email job enqueued")
		}
	}
}
