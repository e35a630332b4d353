package woundRepository

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/internal/entity"
	contextPkg "WoundMonitor/pkg/context"
	"WoundMonitor/pkg/measurement"
	"database/sql"
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

type WoundScanDB struct {
	ID              sql.NullString  `db:"id"`
	PatientID       sql.NullString  `db:"patient_id"`
	ProviderID      sql.NullString  `db:"provider_id"`
	WoundLocation   sql.NullString  `db:"wound_location"`
	ImageURL        sql.NullString  `db:"image_url"`
	QRPayload       sql.NullString  `db:"qr_payload"`
	PixelsPerCm     sql.NullFloat64 `db:"pixels_per_cm"`
	AreaPixels      sql.NullInt64   `db:"area_pixels"`
	PerimeterPixels sql.NullInt64   `db:"perimeter_pixels"`
	AreaCm2         sql.NullFloat64 `db:"area_cm2"`
	PerimeterCm     sql.NullFloat64 `db:"perimeter_cm"`
	Calibrated      sql.NullBool    `db:"calibrated"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r *scanRepository) CreateScan(c context.Context, scan entity.WoundScan) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":               scan.ID,
		"patient_id":       scan.PatientID,
		"provider_id":      scan.ProviderID,
		"wound_location":   scan.WoundLocation,
		"image_url":        scan.ImageURL,
		"qr_payload":       nullString(scan.QRPayload),
		"pixels_per_cm":    nullFloat(scan.PixelsPerCm),
		"area_pixels":      scan.Measurement.AreaPixels,
		"perimeter_pixels": scan.Measurement.PerimeterPixels,
		"area_cm2":         nullFloat(scan.Measurement.AreaCm2),
		"perimeter_cm":     nullFloat(scan.Measurement.PerimeterCm),
		"calibrated":       scan.Measurement.Calibrated,
		"created_at":       scan.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateScan, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateScan named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    scan.ID,
			"error":      err.Error(),
		}).Error("CreateScan execution err")
		return err
	}

	return nil
}

func (r *scanRepository) GetScanByID(c context.Context, id string) (entity.WoundScan, error) {
	requestID := contextPkg.GetRequestID(c)
	var scan WoundScanDB

	query, args, err := sqlx.Named(queryGetScanByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetScanByID named query preparation err")
		return entity.WoundScan{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&scan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"scan_id":    id,
			}).Warn("GetScanByID no rows found")
			return entity.WoundScan{}, wound.ErrScanNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetScanByID execution err")
		return entity.WoundScan{}, err
	}

	return makeWoundScan(scan), nil
}

// GetScansByPatient returns scans newest first. An empty location matches every
// wound of the patient.
func (r *scanRepository) GetScansByPatient(c context.Context, patientID string, location string, limit int) ([]entity.WoundScan, error) {
	requestID := contextPkg.GetRequestID(c)
	var scans []WoundScanDB

	argsKV := map[string]interface{}{
		"patient_id":     patientID,
		"wound_location": location,
		"limit":          limit,
	}

	query, args, err := sqlx.Named(queryGetScansByPatient, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetScansByPatient named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &scans, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"patient_id": patientID,
			"error":      err.Error(),
		}).Error("GetScansByPatient execution err")
		return nil, err
	}

	result := make([]entity.WoundScan, 0, len(scans))
	for _, scan := range scans {
		result = append(result, makeWoundScan(scan))
	}

	return result, nil
}

func (r *scanRepository) DeleteScan(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteScan, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteScan named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteScan execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    id,
		}).Warn("DeleteScan no rows affected")
		return wound.ErrScanNotFound
	}

	return nil
}

func makeWoundScan(scan WoundScanDB) entity.WoundScan {
	return entity.WoundScan{
		ID:            scan.ID.String,
		PatientID:     scan.PatientID.String,
		ProviderID:    scan.ProviderID.String,
		WoundLocation: scan.WoundLocation.String,
		ImageURL:      scan.ImageURL.String,
		QRPayload:     scan.QRPayload.String,
		PixelsPerCm:   floatPtr(scan.PixelsPerCm),
		Measurement: measurement.Measurement{
			AreaPixels:      int(scan.AreaPixels.Int64),
			PerimeterPixels: int(scan.PerimeterPixels.Int64),
			AreaCm2:         floatPtr(scan.AreaCm2),
			PerimeterCm:     floatPtr(scan.PerimeterCm),
			Calibrated:      scan.Calibrated.Bool,
		},
		CreatedAt: scan.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
