package db

const schema = `
-- Source images table
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    k INTEGER NOT NULL
);

-- Reconstruction runs table
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    image_id INTEGER NOT NULL,

    mode TEXT NOT NULL,
    value REAL NOT NULL,
    components INTEGER NOT NULL,

    energy REAL NOT NULL,
    frobenius REAL NOT NULL,
    rmse REAL NOT NULL,
    psnr REAL,
    ssim REAL NOT NULL,
    ratio REAL NOT NULL,

    output_path TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,

    FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
    UNIQUE(image_id, mode, value)
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_runs_image ON runs(image_id);
CREATE INDEX IF NOT EXISTS idx_runs_components ON runs(components);
CREATE INDEX IF NOT EXISTS idx_runs_ssim ON runs(ssim);

-- View for easy querying with all details
CREATE VIEW IF NOT EXISTS runs_detailed AS
SELECT
    r.id,
    r.run_id,

    i.path as image_path,
    i.width,
    i.height,
    i.k,

    r.mode,
    r.value,
    r.components,
    r.energy,
    r.rmse,
    r.psnr,
    r.ssim,
    r.ratio,
    r.output_path
FROM runs r
JOIN images i ON r.image_id = i.id;
`
