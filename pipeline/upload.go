package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"consultai/cache/score_cache"
	"consultai/pdftext"
	"consultai/textproc"
	"consultai/utils/log"
)

const defaultMaxUploadMB = 64

var ErrUploadTooLarge = errors.New("upload exceeds size limit")

// UploadResult is the score of one uploaded report.
type UploadResult struct {
	score_cache.Score
	Digest string
	Cached bool
}

// ScoreUpload scores a single uploaded PDF the way whole reports are
// benchmarked: cleaned text, VADER compound, label. Results are cached by
// content digest.
func (p *Pipeline) ScoreUpload(ctx context.Context, name string, r io.Reader) (UploadResult, error) {
	maxMB := p.cfg.Dashboard.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	limit := maxMB << 20

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return UploadResult{}, errors.Wrap(err, "read upload")
	}
	if int64(len(data)) > limit {
		return UploadResult{}, errors.Wrapf(ErrUploadTooLarge, "%d MB", maxMB)
	}
	if !pdftext.IsPDFBytes(data) {
		return UploadResult{}, pdftext.ErrNotPDF
	}

	digest := score_cache.Digest(data)
	if s, ok, err := p.scores.Get(ctx, digest); err != nil {
		log.Warn(ctx, "score cache lookup", zap.Error(err))
	} else if ok {
		// thresholds may have been reloaded since the score was cached
		s.Name = name
		s.Label = p.Label(s.Compound)
		return UploadResult{Score: s, Digest: digest, Cached: true}, nil
	}

	doc, err := pdftext.ExtractBytes(data)
	if err != nil {
		return UploadResult{}, err
	}
	cleaned := textproc.CleanForSentiment(doc.Text())
	compound := p.analyzer.Compound(cleaned)

	score := score_cache.Score{
		ID:        uuid.NewString(),
		Name:      name,
		Compound:  compound,
		Label:     p.Label(compound),
		Pages:     doc.PageCount,
		Words:     textproc.WordCount(cleaned),
		Decrypted: doc.Decrypted,
		ScoredAt:  time.Now(),
	}
	p.keepUpload(ctx, score.ID, data)

	if err := p.scores.Set(ctx, digest, score); err != nil {
		log.Warn(ctx, "score cache store", zap.Error(err))
	}
	log.Info(ctx, "scored upload",
		zap.String("id", score.ID),
		zap.String("name", name),
		zap.Float64("compound", compound),
		zap.String("label", score.Label))
	return UploadResult{Score: score, Digest: digest}, nil
}

func (p *Pipeline) keepUpload(ctx context.Context, id string, data []byte) {
	dir := p.cfg.Paths.UploadDir
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn(ctx, "create upload dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(filepath.Join(dir, id+".pdf"), data, 0o644); err != nil {
		log.Warn(ctx, "keep upload", zap.String("id", id), zap.Error(err))
	}
}
