package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Scanning %s":                          "%s を走査中",
		"Found %d images, output %s at %d fps": "%d 枚の画像を検出、出力 %s / %d fps",
		"No images found in %s":                "%s に画像が見つかりません",
		"Encoding %d frames at %d fps with %s": "%d フレームを %d fps、%s でエンコード中",
		"Output saved to %s":                   "出力を %s に保存しました",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",

		// Sequence stage
		"Target geometry %s from %s": "出力サイズ %s (%s より)",
		"Processing %s":              "%s を処理中",
		"Resizing from %s to %s":     "%s から %s にリサイズ中",
		"Decoded %s (%s, %dx%d)":     "%s をデコード (%s, %dx%d)",

		// Convert stage
		"Converted frame %d (%s, %s chroma)": "フレーム %d を変換 (%s, 色差 %s)",
		"Failed to save debug frame %d: %s":  "デバッグフレーム %d の保存に失敗しました: %s",

		// Encode stage
		"Opened %s encoder %dx%d, time base %s": "%s エンコーダを開きました %dx%d, タイムベース %s",
		"Flushing encoder after %d frames":      "%d フレーム後にエンコーダをフラッシュ中",
		"End of stream after %d packets":        "%d パケットでストリーム終了",
		"Packet pts=%d size=%d key=%t":          "パケット pts=%d サイズ=%d キー=%t",

		// Encoder backends
		"Using ffmpeg at %s":                                      "ffmpeg を使用: %s",
		"Starting ffmpeg %s":                                      "ffmpeg を起動: %s",
		"Opened MJPEG encoder %dx%d, quality %d":                  "MJPEGエンコーダを開きました %dx%d, 品質 %d",
		"H.264 encoder not available (%v), falling back to MJPEG": "H.264エンコーダが利用できないため (%v)、MJPEGを使用します",

		// Muxer
		"Wrote header for %s %dx%d, time base %s":                "%s %dx%d のヘッダーを書き込み, タイムベース %s",
		"Packet %d has pts %d != dts %d; stored in decode order": "パケット %d は pts %d != dts %d のためデコード順で格納します",
		"Wrote %d samples (%d bytes) to %s":                      "%d サンプル (%d バイト) を %s に書き込みました",

		// Errors
		"Failed to list images: %s":       "画像一覧の取得に失敗しました: %s",
		"Failed to read first image: %s":  "最初の画像の読み込みに失敗しました: %s",
		"Failed to decode image: %s":      "画像のデコードに失敗しました: %s",
		"Failed to set up encoder: %s":    "エンコーダの初期化に失敗しました: %s",
		"Failed to encode video: %s":      "動画のエンコードに失敗しました: %s",
		"Failed to write output: %s":      "出力の書き込みに失敗しました: %s",
		"Failed to save run metadata: %s": "実行メタデータの保存に失敗しました: %s",
	})

	l10n.Register("es", l10n.LexiconMap{
		"Scanning %s":                          "Explorando %s",
		"Found %d images, output %s at %d fps": "%d imágenes encontradas, salida %s a %d fps",
		"No images found in %s":                "No se encontraron imágenes en %s",
		"Encoding %d frames at %d fps with %s": "Codificando %d fotogramas a %d fps con %s",
		"Output saved to %s":                   "Salida guardada en %s",
		"Interrupted, shutting down...":        "Interrumpido, cerrando...",

		"Target geometry %s from %s": "Geometría de salida %s tomada de %s",
		"Processing %s":              "Procesando %s",
		"Resizing from %s to %s":     "Redimensionando de %s a %s",

		"H.264 encoder not available (%v), falling back to MJPEG": "Codificador H.264 no disponible (%v), se usa MJPEG",

		"Failed to decode image: %s": "Error al decodificar la imagen: %s",
		"Failed to encode video: %s": "Error al codificar el vídeo: %s",
		"Failed to write output: %s": "Error al escribir la salida: %s",
	})
}
