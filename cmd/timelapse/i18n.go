// Package main provides localization for the timelapse CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":            "出力先",
		"Video and Quality": "動画と品質",
		"Debug":             "デバッグ",
		"Logging":           "ログ",

		// Root command
		"Turn a directory of still images into a video":                                                              "ディレクトリ内の静止画から動画を作成",
		"timelapse encodes the images of a directory, in file name order, into one MP4 video at a fixed frame rate.": "timelapseはディレクトリ内の画像をファイル名順に、固定フレームレートの1本のMP4動画へエンコードします。",

		// Probe command
		"Show codec, geometry and timing of an MP4 file": "MP4ファイルのコーデック、サイズ、タイミングを表示",
		"Codec: %s (%s)":            "コーデック: %s (%s)",
		"Size: %dx%d":               "サイズ: %dx%d",
		"Timescale: %d":             "タイムスケール: %d",
		"Frames: %d (%d keyframes)": "フレーム数: %d (キーフレーム %d)",
		"Duration: %.3f s":          "再生時間: %.3f 秒",

		// Output flags
		"Output MP4 file path":                               "出力MP4ファイルパス",
		"Frames per second (positive integer)":               "1秒あたりのフレーム数（正の整数）",
		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",
		"YAML configuration file (flags take precedence)":    "YAML設定ファイル（フラグが優先）",

		// Video flags
		"Video codec (h264, mjpeg)":                                            "動画コーデック（h264, mjpeg）",
		"Chroma subsampling (point, box)":                                      "色差サブサンプリング（point, box）",
		"Video CRF value (0-63, lower is better, 0 = codec default)":           "動画のCRF値（0-63、低いほど高品質、0 = コーデック既定値）",
		"Quality preset (low, medium, high)":                                   "品質プリセット（low, medium, high）",
		"Target bitrate in kbps (0 = unconstrained)":                           "目標ビットレート（kbps、0 = 制限なし）",
		"Encoder speed preset (e.g. ultrafast, fast, slow)":                    "エンコーダの速度プリセット（例: ultrafast, fast, slow）",
		"Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)": "ffmpeg実行ファイルのパス（未指定時はFFMPEG_PATH環境変数、次にPATH）",
		"Fail instead of falling back to MJPEG when H.264 is unavailable":      "H.264が使えない場合にMJPEGへ切り替えずエラーにする",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Runtime messages
		"Encoding %s to %s (%s, %d fps)...":                     "%s を %s にエンコード中 (%s, %d fps)...",
		"No images found in %s, nothing to do":                  "%s に画像が見つからないため、何もしません",
		"use --codec mjpeg for images with odd width or height": "幅または高さが奇数の画像には --codec mjpeg を使用してください",
		"Interrupted, shutting down...":                         "中断されました。シャットダウン中...",
		"Summary saved to %s":                                   "サマリーを %s に保存しました",
		"Failed to write summary: %s":                           "サマリーの書き込みに失敗しました: %s",

		// Error messages
		"Error: %s":                                 "エラー: %s",
		"Source directory argument is required":     "入力ディレクトリの引数が必要です",
		"Only one source directory may be given":    "入力ディレクトリは1つだけ指定できます",
		"Exactly one MP4 file argument is required": "MP4ファイルの引数を1つ指定してください",

		// Summary content
		"Timelapse Summary": "タイムラプスの概要",
		"Source":            "入力",
		"Settings":          "設定",
		"Video":             "動画",
		"Item":              "項目",
		"Value":             "値",
		"Directory":         "ディレクトリ",
		"Images":            "画像数",
		"Resized":           "リサイズ数",
		"Frame Rate":        "フレームレート",
		"Codec":             "コーデック",
		"fallback from":     "代替元",
		"Chroma":            "色差",
		"Quality":           "品質",
		"Bitrate":           "ビットレート",
		"Preset":            "プリセット",
		"Default":           "既定",
		"Size":              "サイズ",
		"Frames":            "フレーム数",
		"Keyframes":         "キーフレーム数",
		"Duration":          "再生時間",
		"File Size":         "ファイルサイズ",
		"Average Frame":     "平均フレームサイズ",
		"Generated at":      "生成日時",
		"took":              "所要時間",
	})

	// Register Spanish translations for the most visible messages.
	l10n.Register("es", l10n.LexiconMap{
		"Turn a directory of still images into a video":         "Convierte un directorio de imágenes fijas en un vídeo",
		"Output MP4 file path":                                  "Ruta del archivo MP4 de salida",
		"Frames per second (positive integer)":                  "Fotogramas por segundo (entero positivo)",
		"Encoding %s to %s (%s, %d fps)...":                     "Codificando %s en %s (%s, %d fps)...",
		"No images found in %s, nothing to do":                  "No se encontraron imágenes en %s, no hay nada que hacer",
		"use --codec mjpeg for images with odd width or height": "use --codec mjpeg para imágenes de ancho o alto impar",
		"Interrupted, shutting down...":                         "Interrumpido, cerrando...",
		"Summary saved to %s":                                   "Resumen guardado en %s",
		"Error: %s":                                             "Error: %s",
		"Source directory argument is required":                 "Se requiere el directorio de origen",
		"Timelapse Summary":                                     "Resumen del timelapse",
		"Frames":                                                "Fotogramas",
		"Duration":                                              "Duración",
	})
}
