package idcard

// Sample OCR output for a chip CCCD, as Tesseract returns it with the
// single-block page segmentation: captions and values share lines, some
// spacing is irregular and the MRZ survives on the back.
const (
	sampleFront = `CỘNG HÒA XÃ HỘI CHỦ NGHĨA VIỆT NAM
Độc lập - Tự do - Hạnh phúc
SOCIALIST REPUBLIC OF VIET NAM
Independence - Freedom - Happiness

CĂN CƯỚC CÔNG DÂN
Citizen Identity Card
Số / No.:   079201012345
Họ và tên / Full name:
NGUYỄN VĂN AN
Ngày sinh / Date of birth: 01/01/1990
Giới tính / Sex: Nam   Quốc tịch / Nationality: Việt Nam
Quê quán / Place of origin:
Tân Bình, Hồ Chí Minh
Nơi thường trú / Place of residence: 35/6 Đường 185
Phường Phước Long B, Thủ Đức, TP Hồ Chí Minh
Có giá trị đến: 01/01/2030
Date of expiry`

	sampleBack = `Đặc điểm nhân dạng / Personal identification:
Nốt ruồi C:2cm trên sau đầu mày trái
Ngày, tháng, năm / Date, month, year: 15/06/2020
CỤC TRƯỞNG CỤC CẢNH SÁT
QUẢN LÝ HÀNH CHÍNH VỀ TRẬT TỰ XÃ HỘI
IDVNM0790120123079201012345<<1
9001011M3001012VNM<<<<<<<<<<<6
NGUYEN<<VAN<AN<<<<<<<<<<<<<<<<`

	// sampleLegacyFront is a CMND front: 9-digit number, no MRZ on the back.
	sampleLegacyFront = `CỘNG HÒA XÃ HỘI CHỦ NGHĨA VIỆT NAM
GIẤY CHỨNG MINH NHÂN DÂN
SỐ 024681357
Họ tên khai sinh
TRẦN THỊ BÌNH
Sinh ngày 12-08-1985
Nguyên quán Hà Nội
Nơi thường trú: Thôn 3, Xã Ea Kao, Buôn Ma Thuột`
)

func normalized(front, back string) NormalizedText {
	return NormalizeText(RawText{Front: front, Back: back})
}
