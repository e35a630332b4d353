package woundRepository

const (
	queryCreateScan = `
		INSERT INTO wound_scans (
			id,
			patient_id,
			provider_id,
			wound_location,
			image_url,
			qr_payload,
			pixels_per_cm,
			area_pixels,
			perimeter_pixels,
			area_cm2,
			perimeter_cm,
			calibrated,
			created_at
		) VALUES (
			:id,
			:patient_id,
			:provider_id,
			:wound_location,
			:image_url,
			:qr_payload,
			:pixels_per_cm,
			:area_pixels,
			:perimeter_pixels,
			:area_cm2,
			:perimeter_cm,
			:calibrated,
			:created_at
		)
	`

	queryGetScanByID = `
		SELECT
			id,
			patient_id,
			provider_id,
			wound_location,
			image_url,
			qr_payload,
			pixels_per_cm,
			area_pixels,
			perimeter_pixels,
			area_cm2,
			perimeter_cm,
			calibrated,
			created_at
		FROM wound_scans
		WHERE id = :id
	`

	queryGetScansByPatient = `
		SELECT
			id,
			patient_id,
			provider_id,
			wound_location,
			image_url,
			qr_payload,
			pixels_per_cm,
			area_pixels,
			perimeter_pixels,
			area_cm2,
			perimeter_cm,
			calibrated,
			created_at
		FROM wound_scans
		WHERE
			patient_id = :patient_id
			AND (CAST(:wound_location AS TEXT) = '' OR wound_location = :wound_location)
		ORDER BY created_at DESC, id DESC
		LIMIT :limit
	`

	queryDeleteScan = `
		DELETE FROM wound_scans
		WHERE id = :id
	`
)
