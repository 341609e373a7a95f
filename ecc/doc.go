/*
ecc 包实现了比特币签名所需的椭圆曲线密码学基础。

包中依次提供：

  - FieldElement：任意素数域上的有限域元素；
  - Curve 与 Point：短 Weierstrass 曲线上的点及群运算；
  - secp256k1 参数 P、N、G 以及该曲线上的公钥 PublicKey（SEC 编码、ECDSA 验证、P2PKH 地址）；
  - Signature：ECDSA 签名及其严格 DER 编码；
  - PrivateKey：基于 RFC6979 确定性 nonce 的签名，结果总是 low-s 形式。

# 错误

该包返回的错误类型为 ecc.Error，调用者可以通过 ErrorCode 字段或 IsErrorCode 函数以编程方式判断错误原因。
*/
package ecc
