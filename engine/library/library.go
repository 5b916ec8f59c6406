package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

// ClipInfo describes a stored clip without decoding its tracks.
type ClipInfo struct {
	Name      string
	Duration  float64
	BlendMode track.BlendMode
	Tracks    int
	UpdatedAt time.Time
}

// library is the implementation of the Library interface.
type library struct {
	path  string
	db    *gorm.DB
	owned bool
}

// Library is a persistent store of animation clips backed by SQLite.
// Clips are keyed by name; saving a clip under an existing name replaces it.
type Library interface {
	// Save stores clip, replacing any clip with the same name.
	//
	// Parameters:
	//   - ctx: the context of the operation
	//   - clip: the clip to store
	//
	// Returns:
	//   - error: an error if the clip could not be encoded or written
	Save(ctx context.Context, clip *track.Clip) error

	// Load decodes the clip stored under name. Every call returns a new clip.
	//
	// Parameters:
	//   - ctx: the context of the operation
	//   - name: the clip name
	//
	// Returns:
	//   - *track.Clip: the decoded clip
	//   - error: an error wrapping ErrClipNotFound or ErrCorruptRecord on failure
	Load(ctx context.Context, name string) (*track.Clip, error)

	// List returns a summary of every stored clip ordered by name.
	//
	// Parameters:
	//   - ctx: the context of the operation
	//
	// Returns:
	//   - []ClipInfo: the stored clips
	//   - error: an error if the query failed
	List(ctx context.Context) ([]ClipInfo, error)

	// Delete removes the clip stored under name.
	//
	// Parameters:
	//   - ctx: the context of the operation
	//   - name: the clip name
	//
	// Returns:
	//   - error: an error wrapping ErrClipNotFound if there is no such clip
	Delete(ctx context.Context, name string) error

	// Close releases the database connection unless it was supplied with WithDB.
	//
	// Returns:
	//   - error: an error if the connection could not be closed
	Close() error
}

var _ Library = &library{}

// NewLibrary opens a clip library and migrates its tables.
// Without WithPath or WithDB the library lives in memory and is lost on Close.
//
// Parameters:
//   - options: variadic list of LibraryBuilderOption functions
//
// Returns:
//   - Library: the opened library
//   - error: an error if the database could not be opened or migrated
func NewLibrary(options ...LibraryBuilderOption) (Library, error) {
	l := &library{}
	for _, opt := range options {
		opt(l)
	}

	if l.db == nil {
		db, err := openSqlite(l.path)
		if err != nil {
			return nil, err
		}
		l.db = db
		l.owned = true
	}

	if err := l.db.AutoMigrate(DatabaseModels...); err != nil {
		if l.owned {
			_ = l.Close()
		}
		return nil, fmt.Errorf("migrating clip library: %w", err)
	}
	return l, nil
}

func openSqlite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening clip library %q: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("opening clip library %q: %w", dsn, err)
	}
	if path == "" {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
		common.Logger().Info().Msg("clip library in memory")
	} else {
		common.Logger().Info().Str("path", path).Msg("clip library opened")
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA cache_size = -8000;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}
	return db, nil
}

func (l *library) Save(ctx context.Context, clip *track.Clip) error {
	if clip == nil {
		return errors.New("library: clip must not be nil")
	}
	rec, err := encodeClip(clip)
	if err != nil {
		return err
	}

	err = l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "duration", "blend_mode", "track_count", "tracks"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("saving clip %q: %w", clip.Name(), err)
	}
	common.Logger().Info().Str("clip", clip.Name()).Int("tracks", rec.TrackCount).Float64("duration", rec.Duration).Msg("clip saved")
	return nil
}

func (l *library) Load(ctx context.Context, name string) (*track.Clip, error) {
	var rec ClipRecord
	err := l.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading clip %q: %w", name, ErrClipNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading clip %q: %w", name, err)
	}

	clip, err := decodeClip(&rec)
	if err != nil {
		return nil, err
	}
	common.Logger().Debug().Str("clip", name).Msg("clip loaded")
	return clip, nil
}

func (l *library) List(ctx context.Context) ([]ClipInfo, error) {
	var recs []ClipRecord
	err := l.db.WithContext(ctx).
		Select("name", "duration", "blend_mode", "track_count", "updated_at").
		Order("name").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing clips: %w", err)
	}

	infos := make([]ClipInfo, 0, len(recs))
	for _, rec := range recs {
		infos = append(infos, ClipInfo{
			Name:      rec.Name,
			Duration:  rec.Duration,
			BlendMode: parseBlendMode(rec.BlendMode),
			Tracks:    rec.TrackCount,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return infos, nil
}

func (l *library) Delete(ctx context.Context, name string) error {
	res := l.db.WithContext(ctx).Where("name = ?", name).Delete(&ClipRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting clip %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deleting clip %q: %w", name, ErrClipNotFound)
	}
	common.Logger().Info().Str("clip", name).Msg("clip deleted")
	return nil
}

func (l *library) Close() error {
	if !l.owned {
		return nil
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func encodeClip(clip *track.Clip) (*ClipRecord, error) {
	tracks := make([]trackRecord, 0, len(clip.Tracks()))
	for _, t := range clip.Tracks() {
		tr := trackRecord{
			Name:          t.Name(),
			ValueType:     t.ValueType().String(),
			Interpolation: t.Interpolation().String(),
			Times:         t.Times(),
		}
		if t.ValueType() == track.ValueTypeString {
			tr.Strings = t.Strings()
		} else {
			tr.Values = t.Values()
		}
		tracks = append(tracks, tr)
	}

	data, err := json.Marshal(tracks)
	if err != nil {
		return nil, fmt.Errorf("encoding clip %q: %w", clip.Name(), err)
	}
	return &ClipRecord{
		Name:       clip.Name(),
		Duration:   clip.Duration(),
		BlendMode:  clip.BlendMode().String(),
		TrackCount: len(tracks),
		Tracks:     datatypes.JSON(data),
	}, nil
}

func decodeClip(rec *ClipRecord) (*track.Clip, error) {
	var records []trackRecord
	if err := json.Unmarshal(rec.Tracks, &records); err != nil {
		return nil, fmt.Errorf("clip %q: %w: %w", rec.Name, ErrCorruptRecord, err)
	}

	tracks := make([]*track.Track, 0, len(records))
	for i, tr := range records {
		t, err := decodeTrack(tr)
		if err != nil {
			return nil, fmt.Errorf("clip %q track %d: %w: %w", rec.Name, i, ErrCorruptRecord, err)
		}
		tracks = append(tracks, t)
	}
	return track.NewClip(rec.Name, rec.Duration, tracks, track.WithBlendMode(parseBlendMode(rec.BlendMode))), nil
}

func decodeTrack(tr trackRecord) (*track.Track, error) {
	vt, ok := track.ParseValueType(tr.ValueType)
	if !ok {
		return nil, fmt.Errorf("unknown value type %q", tr.ValueType)
	}
	if vt == track.ValueTypeString {
		return track.NewStringTrack(tr.Name, tr.Times, tr.Strings)
	}
	interp, ok := track.ParseInterpolation(tr.Interpolation)
	if !ok {
		return nil, fmt.Errorf("unknown interpolation %q", tr.Interpolation)
	}
	return track.New(tr.Name, vt, tr.Times, tr.Values, interp)
}

func parseBlendMode(s string) track.BlendMode {
	if s == track.BlendModeAdditive.String() {
		return track.BlendModeAdditive
	}
	return track.BlendModeNormal
}
