// Package postgres is a PostGIS-backed store.Workspace, grounded on the
// sqlx + lib/pq data-access style used for trail and boundary storage
// elsewhere in the pack: plain SQL through sqlx.DB, pq.Array for slice
// columns, and zap for logging (a failed advisory unlock is logged as a
// warning; statements themselves are not logged). Geometry columns are
// written as GeoJSON text and read back the same way; the schema is
// expected to keep a generated PostGIS geometry column alongside for
// spatial indexing, but this package never issues ST_* calls directly —
// that index maintenance is left to the schema's triggers.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/store"
)

// Store is a PostGIS-backed store.Workspace scoped to one region schema.
type Store struct {
	db        *sqlx.DB
	schema    string
	regionKey string
	log       *zap.Logger
}

// Open connects to dsn and returns a Store scoped to schema/regionKey. The
// caller owns the returned Store's lifetime and should call Close when the
// run is finished.
func Open(dsn, schema, regionKey string, log *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, schema: schema, regionKey: regionKey, log: log}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

var _ store.Workspace = (*Store)(nil)

// RegionKey implements store.Workspace.
func (s *Store) RegionKey() string { return s.regionKey }

func (s *Store) table(name string) string {
	return fmt.Sprintf("%s.%s", s.schema, name)
}

type trailRow struct {
	ID         uuid.UUID      `db:"id"`
	SourceID   string         `db:"source_id"`
	ExternalID sql.NullString `db:"external_id"`
	ParentID   uuid.NullUUID  `db:"parent_id"`
	RegionKey  string         `db:"region_key"`
	Name       string         `db:"name"`
	Class      int            `db:"class"`
	GeometryJS string         `db:"geometry_json"`
	LengthKM   float64        `db:"length_km"`
	ElevGainM  float64        `db:"elev_gain_m"`
	ElevLossM  float64        `db:"elev_loss_m"`
	ElevMinM   float64        `db:"elev_min_m"`
	ElevMaxM   float64        `db:"elev_max_m"`
	ElevAvgM   float64        `db:"elev_avg_m"`
}

func toTrailRow(t geomodel.Trail) (trailRow, error) {
	geomBytes, err := json.Marshal(t.Geometry)
	if err != nil {
		return trailRow{}, fmt.Errorf("postgres: marshal geometry: %w", err)
	}
	row := trailRow{
		ID:         t.ID,
		SourceID:   t.SourceID,
		RegionKey:  t.RegionKey,
		Name:       t.Name,
		Class:      int(t.Class),
		GeometryJS: string(geomBytes),
		LengthKM:   t.LengthKM,
		ElevGainM:  t.ElevGainM,
		ElevLossM:  t.ElevLossM,
		ElevMinM:   t.ElevMinM,
		ElevMaxM:   t.ElevMaxM,
		ElevAvgM:   t.ElevAvgM,
	}
	if t.ExternalID != nil {
		row.ExternalID = sql.NullString{String: *t.ExternalID, Valid: true}
	}
	if t.ParentID != nil {
		row.ParentID = uuid.NullUUID{UUID: *t.ParentID, Valid: true}
	}
	return row, nil
}

func (r trailRow) toTrail() (geomodel.Trail, error) {
	var geom geomodel.LineString
	if err := json.Unmarshal([]byte(r.GeometryJS), &geom); err != nil {
		return geomodel.Trail{}, fmt.Errorf("postgres: unmarshal geometry: %w", err)
	}
	t := geomodel.Trail{
		ID:        r.ID,
		SourceID:  r.SourceID,
		RegionKey: r.RegionKey,
		Name:      r.Name,
		Class:     geomodel.TrailClass(r.Class),
		Geometry:  geom,
		LengthKM:  r.LengthKM,
		ElevGainM: r.ElevGainM,
		ElevLossM: r.ElevLossM,
		ElevMinM:  r.ElevMinM,
		ElevMaxM:  r.ElevMaxM,
		ElevAvgM:  r.ElevAvgM,
		BBox:      geom.BBox(),
	}
	if r.ExternalID.Valid {
		t.ExternalID = &r.ExternalID.String
	}
	if r.ParentID.Valid {
		id := r.ParentID.UUID
		t.ParentID = &id
	}
	return t, nil
}

// ListTrails implements store.Workspace.
func (s *Store) ListTrails(ctx context.Context) ([]geomodel.Trail, error) {
	query := fmt.Sprintf(`SELECT id, source_id, external_id, parent_id, region_key, name,
		class, geometry_json, length_km, elev_gain_m, elev_loss_m, elev_min_m, elev_max_m, elev_avg_m
		FROM %s WHERE region_key = $1`, s.table(store.TableTrails))

	var rows []trailRow
	err := store.Retry(ctx, store.DefaultRetryConfig(), func(ctx context.Context, attempt int) error {
		return s.db.SelectContext(ctx, &rows, query, s.regionKey)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list trails: %w", err)
	}
	out := make([]geomodel.Trail, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTrail()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// InsertTrails implements store.Workspace.
func (s *Store) InsertTrails(ctx context.Context, trails []geomodel.Trail) error {
	err := store.Retry(ctx, store.DefaultRetryConfig(), func(ctx context.Context, attempt int) error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("postgres: insert trails: begin: %w", err)
		}
		defer tx.Rollback()

		if err := s.insertTrailsTx(ctx, tx, trails); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("postgres: insert trails: commit: %w", err)
		}
		return nil
	})
	return err
}

func (s *Store) insertTrailsTx(ctx context.Context, tx *sqlx.Tx, trails []geomodel.Trail) error {
	query := fmt.Sprintf(`INSERT INTO %s
		(id, source_id, external_id, parent_id, region_key, name, class, geometry_json,
		 length_km, elev_gain_m, elev_loss_m, elev_min_m, elev_max_m, elev_avg_m)
		VALUES (:id, :source_id, :external_id, :parent_id, :region_key, :name, :class, :geometry_json,
		 :length_km, :elev_gain_m, :elev_loss_m, :elev_min_m, :elev_max_m, :elev_avg_m)
		ON CONFLICT (id) DO UPDATE SET
		 name = EXCLUDED.name, geometry_json = EXCLUDED.geometry_json,
		 length_km = EXCLUDED.length_km`, s.table(store.TableTrails))

	for _, t := range trails {
		row, err := toTrailRow(t)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("postgres: insert trail %s: %w", t.ID, err)
		}
	}
	return nil
}

// DeleteTrails implements store.Workspace.
func (s *Store) DeleteTrails(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.table(store.TableTrails))
	if _, err := s.db.ExecContext(ctx, query, pq.Array(raw)); err != nil {
		return fmt.Errorf("postgres: delete trails: %w", err)
	}
	return nil
}

// ReplaceTrails implements store.Workspace: delete the parent and insert
// its children inside a single transaction, per spec.md §4.3's atomic
// replace-with-children requirement.
func (s *Store) ReplaceTrails(ctx context.Context, parent uuid.UUID, children []geomodel.Trail) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: replace trails: begin: %w", err)
	}
	defer tx.Rollback()

	delQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table(store.TableTrails))
	res, err := tx.ExecContext(ctx, delQuery, parent)
	if err != nil {
		return fmt.Errorf("postgres: replace trails: delete parent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("postgres: replace trails: parent %s not found", parent)
	}

	if err := s.insertTrailsTx(ctx, tx, children); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: replace trails: commit: %w", err)
	}
	return nil
}

type vertexRow struct {
	ID             int64   `db:"id"`
	RegionKey      string  `db:"region_key"`
	Lng            float64 `db:"lng"`
	Lat            float64 `db:"lat"`
	ElevM          float64 `db:"elev_m"`
	Degree         int     `db:"degree"`
	Classification int     `db:"classification"`
}

// SetVertices implements store.Workspace by truncating and re-inserting,
// mirroring the full-replace semantics the noder produces its output
// under (the whole topology is regenerated on every run).
func (s *Store) SetVertices(ctx context.Context, vertices []geomodel.Vertex) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: set vertices: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE region_key = $1`, s.table(store.TableVertices)), s.regionKey); err != nil {
		return fmt.Errorf("postgres: set vertices: clear: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, region_key, lng, lat, elev_m, degree, classification)
		VALUES (:id, :region_key, :lng, :lat, :elev_m, :degree, :classification)`, s.table(store.TableVertices))
	for _, v := range vertices {
		row := vertexRow{
			ID: v.ID, RegionKey: s.regionKey,
			Lng: v.Point.X, Lat: v.Point.Y, ElevM: v.Point.Z,
			Degree: v.Degree, Classification: int(v.Classification),
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("postgres: set vertices: insert %d: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// ListVertices implements store.Workspace.
func (s *Store) ListVertices(ctx context.Context) ([]geomodel.Vertex, error) {
	query := fmt.Sprintf(`SELECT id, lng, lat, elev_m, degree, classification FROM %s WHERE region_key = $1 ORDER BY id`, s.table(store.TableVertices))
	var rows []vertexRow
	if err := s.db.SelectContext(ctx, &rows, query, s.regionKey); err != nil {
		return nil, fmt.Errorf("postgres: list vertices: %w", err)
	}
	out := make([]geomodel.Vertex, 0, len(rows))
	for _, r := range rows {
		out = append(out, geomodel.Vertex{
			ID:             r.ID,
			Point:          geomodel.Point3D{X: r.Lng, Y: r.Lat, Z: r.ElevM},
			Degree:         r.Degree,
			Classification: geomodel.VertexClass(r.Classification),
		})
	}
	return out, nil
}

type edgeRow struct {
	ID         int64     `db:"id"`
	RegionKey  string    `db:"region_key"`
	Source     int64     `db:"source_vertex"`
	Target     int64     `db:"target_vertex"`
	TrailID    uuid.UUID `db:"trail_id"`
	TrailName  string    `db:"trail_name"`
	GeometryJS string    `db:"geometry_json"`
	LengthKM   float64   `db:"length_km"`
	ElevGainM  float64   `db:"elev_gain_m"`
	ElevLossM  float64   `db:"elev_loss_m"`
	Cost       float64   `db:"cost"`
	ReverseCost float64  `db:"reverse_cost"`
}

// SetEdges implements store.Workspace.
func (s *Store) SetEdges(ctx context.Context, edges []geomodel.Edge) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: set edges: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE region_key = $1`, s.table(store.TableNodedEdges)), s.regionKey); err != nil {
		return fmt.Errorf("postgres: set edges: clear: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(id, region_key, source_vertex, target_vertex, trail_id, trail_name, geometry_json,
		 length_km, elev_gain_m, elev_loss_m, cost, reverse_cost)
		VALUES (:id, :region_key, :source_vertex, :target_vertex, :trail_id, :trail_name, :geometry_json,
		 :length_km, :elev_gain_m, :elev_loss_m, :cost, :reverse_cost)`, s.table(store.TableNodedEdges))
	for _, e := range edges {
		geomBytes, err := json.Marshal(e.Geometry)
		if err != nil {
			return fmt.Errorf("postgres: set edges: marshal %d: %w", e.ID, err)
		}
		row := edgeRow{
			ID: e.ID, RegionKey: s.regionKey, Source: e.Source, Target: e.Target,
			TrailID: e.OriginatingTrailID, TrailName: e.OriginatingTrailName,
			GeometryJS: string(geomBytes), LengthKM: e.LengthKM,
			ElevGainM: e.ElevGainM, ElevLossM: e.ElevLossM,
			Cost: e.Cost, ReverseCost: e.ReverseCost,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("postgres: set edges: insert %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// ListEdges implements store.Workspace.
func (s *Store) ListEdges(ctx context.Context) ([]geomodel.Edge, error) {
	query := fmt.Sprintf(`SELECT id, source_vertex, target_vertex, trail_id, trail_name, geometry_json,
		length_km, elev_gain_m, elev_loss_m, cost, reverse_cost
		FROM %s WHERE region_key = $1 ORDER BY id`, s.table(store.TableNodedEdges))
	var rows []edgeRow
	if err := s.db.SelectContext(ctx, &rows, query, s.regionKey); err != nil {
		return nil, fmt.Errorf("postgres: list edges: %w", err)
	}
	out := make([]geomodel.Edge, 0, len(rows))
	for _, r := range rows {
		var geom geomodel.LineString
		if err := json.Unmarshal([]byte(r.GeometryJS), &geom); err != nil {
			return nil, fmt.Errorf("postgres: list edges: unmarshal %d: %w", r.ID, err)
		}
		out = append(out, geomodel.Edge{
			ID: r.ID, Source: r.Source, Target: r.Target,
			OriginatingTrailID: r.TrailID, OriginatingTrailName: r.TrailName,
			Geometry: geom, LengthKM: r.LengthKM,
			ElevGainM: r.ElevGainM, ElevLossM: r.ElevLossM,
			Cost: r.Cost, ReverseCost: r.ReverseCost,
		})
	}
	return out, nil
}

// SetRoutes implements store.Workspace.
func (s *Store) SetRoutes(ctx context.Context, routes []geomodel.RouteCandidate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: set routes: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE region_key = $1`, s.table(store.TableRoutes)), s.regionKey); err != nil {
		return fmt.Errorf("postgres: set routes: clear: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(id, region_key, shape, edge_ids, distance_km, gain_m, similarity, anchor_vertex, trail_names)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table(store.TableRoutes))
	for _, r := range routes {
		edgeIDs := make([]int64, len(r.EdgeIDs))
		copy(edgeIDs, r.EdgeIDs)
		if _, err := tx.ExecContext(ctx, query, r.ID, s.regionKey, r.Shape.String(), pq.Array(edgeIDs),
			r.DistanceKM, r.GainM, r.Similarity, r.AnchorVertex, pq.Array(r.TrailNames)); err != nil {
			return fmt.Errorf("postgres: set routes: insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// ListRoutes implements store.Workspace.
func (s *Store) ListRoutes(ctx context.Context) ([]geomodel.RouteCandidate, error) {
	query := fmt.Sprintf(`SELECT id, shape, edge_ids, distance_km, gain_m, similarity, anchor_vertex, trail_names
		FROM %s WHERE region_key = $1`, s.table(store.TableRoutes))

	rows, err := s.db.QueryxContext(ctx, query, s.regionKey)
	if err != nil {
		return nil, fmt.Errorf("postgres: list routes: %w", err)
	}
	defer rows.Close()

	var out []geomodel.RouteCandidate
	for rows.Next() {
		var (
			id           uuid.UUID
			shape        string
			edgeIDs      pq.Int64Array
			distanceKM   float64
			gainM        float64
			similarity   float64
			anchorVertex int64
			trailNames   pq.StringArray
		)
		if err := rows.Scan(&id, &shape, &edgeIDs, &distanceKM, &gainM, &similarity, &anchorVertex, &trailNames); err != nil {
			return nil, fmt.Errorf("postgres: list routes: scan: %w", err)
		}
		out = append(out, geomodel.RouteCandidate{
			ID: id, Shape: shapeFromString(shape), EdgeIDs: []int64(edgeIDs),
			DistanceKM: distanceKM, GainM: gainM, Similarity: similarity,
			AnchorVertex: anchorVertex, TrailNames: []string(trailNames),
		})
	}
	return out, rows.Err()
}

func shapeFromString(s string) geomodel.RouteShape {
	switch s {
	case "loop":
		return geomodel.ShapeLoop
	case "out-and-back":
		return geomodel.ShapeOutAndBack
	default:
		return geomodel.ShapePointToPoint
	}
}

// lockKey hashes a table name into the int64 keyspace pg_advisory_lock
// expects, scoped by region so two regions never contend.
func (s *Store) lockKey(table string) int64 {
	h := fnv64a(s.regionKey + "/" + table)
	return int64(h)
}

func fnv64a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// Lock implements store.Workspace using session-scoped PostgreSQL advisory
// locks: pg_advisory_lock blocks until every named table's key is held,
// and the returned Unlock releases them all. This is a real cross-process
// mutex, unlike memstore's in-process flag, so concurrent pipeline runs
// against the same region correctly serialize on overlapping tables.
func (s *Store) Lock(ctx context.Context, tables ...string) (store.Unlock, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: lock: acquire connection: %w", err)
	}

	for _, t := range tables {
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, s.lockKey(t)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("postgres: lock table %q: %w", t, err)
		}
	}

	return func() {
		for _, t := range tables {
			if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, s.lockKey(t)); err != nil {
				s.log.Warn("postgres: advisory unlock failed", zap.String("table", t), zap.Error(err))
			}
		}
		conn.Close()
	}, nil
}
