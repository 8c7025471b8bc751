package pkg

import "os"

// CheckFileExist 检查文件是否存在
func CheckFileExist(filePath string) (bool, error) {
	_, err := os.Lstat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WriteStringToFile 将字符串内容写入到指定文件
func WriteStringToFile(filePath string, content string) error {
	return os.WriteFile(filePath, []byte(content), 0o644)
}
